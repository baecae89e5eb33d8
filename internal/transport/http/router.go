// Package httptransport assembles the public HTTP surface: the shared
// middleware chain, the identity edge, and the versioned ledger API.
// Domain handlers own their routes; this package only mounts them.
package httptransport

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aircover/internal/platform/metrics"
	"aircover/internal/platform/middleware"
	ratelimitmw "aircover/internal/ratelimit/middleware"
	"aircover/internal/ratelimit/models"
	"aircover/pkg/platform/httputil"
)

// Registrar mounts a route group on the router. Every domain handler
// implements it.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router mounts. Registry, Insurance,
// and Oracle share the /v1 ledger API; Identity is the admission edge.
type RouterConfig struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	RateLimit *ratelimitmw.Middleware

	Registry  Registrar
	Insurance Registrar
	Oracle    Registrar
	Identity  Registrar

	// RequestTimeout bounds each request; zero means 15s.
	RequestTimeout time.Duration
}

// NewRouter wires the middleware chain and mounts every route group.
//
// Order matters: Recovery outermost so panics in other middleware are
// caught; RequestID and RequestTime before Logger so log lines carry
// them; ClientMetadata before rate limiting so limits key on the right
// IP; Timeout inside Logger so timed-out requests are still logged.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(cfg.Metrics))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/identity", func(r chi.Router) {
		r.Use(cfg.RateLimit.RateLimit(models.ClassAuth))
		cfg.Identity.Register(r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(cfg.RateLimit.RateLimitByMethod())
		cfg.Registry.Register(r)
		cfg.Insurance.Register(r)
		cfg.Oracle.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
