package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// AdminKeyHeader authenticates operator-only endpoints such as participant
// provisioning.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards operator endpoints with a shared key. Comparison is
// constant-time.
func RequireAdminKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(AdminKeyHeader)
			if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
				logger.WarnContext(r.Context(), "admin endpoint rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin key required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
