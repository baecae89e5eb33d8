package middleware

import (
	"net/http"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// PaymentHeader carries the payment amount attached to an operation, in
// abstract ledger units. The payment rail is modeled, not real: the ledger
// records the attached amount and reports change due in the response.
const PaymentHeader = "X-Payment-Units"

// PaymentUnits parses the attached payment into the request context. A
// request without the header carries zero payment; a malformed header is
// rejected so a caller never silently pays nothing.
func PaymentUnits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(PaymentHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		units, err := domain.ParseUnits(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "X-Payment-Units must be an unsigned decimal integer"))
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithPayment(r.Context(), units)))
	})
}
