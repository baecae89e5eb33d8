// Package middleware enforces rate limits at the HTTP edge. Checks fail
// open: a broken limiter must not take the ledger API down with it.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"aircover/internal/platform/metrics"
	"aircover/internal/ratelimit/models"
	"aircover/pkg/platform/httputil"
	"aircover/pkg/requestcontext"
)

// RateLimiter is the check surface the middleware drives.
type RateLimiter interface {
	CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error)
	CheckBoth(ctx context.Context, ip, address string, class models.EndpointClass) (*models.RateLimitResult, error)
}

// Middleware applies classed rate limits to routes.
type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

// Option configures the Middleware.
type Option func(*Middleware)

// WithDisabled turns rate limiting off entirely (local/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithMetrics records rejected requests on the transport metrics.
func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// New constructs the rate limit middleware.
func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit enforces the class budget. Before authentication only the
// client IP is counted; once a caller address is in the request context
// the participant budget applies as well.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.check(w, r, next, class)
		})
	}
}

// RateLimitByMethod classes requests by their HTTP method: reads are
// GET/HEAD, everything else is a mutation. Used on the ledger API where
// one route tree mixes both.
func (m *Middleware) RateLimitByMethod() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := models.ClassMutation
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				class = models.ClassRead
			}
			m.check(w, r, next, class)
		})
	}
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, next http.Handler, class models.EndpointClass) {
	if m.disabled {
		next.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	ip := requestcontext.ClientIP(ctx)
	caller := requestcontext.Caller(ctx)

	var result *models.RateLimitResult
	var err error
	if caller.IsZero() {
		result, err = m.limiter.CheckIP(ctx, ip, class)
	} else {
		result, err = m.limiter.CheckBoth(ctx, ip, caller.String(), class)
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "rate limit check failed",
			"error", err,
			"ip", ip,
			"endpoint_class", class,
		)
		next.ServeHTTP(w, r)
		return
	}

	addRateLimitHeaders(w, result)

	if !result.Allowed {
		m.metrics.IncrementRateLimitRejection(string(class))
		writeRateLimitExceeded(w, result)
		return
	}

	next.ServeHTTP(w, r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
