// Package metrics registers the transport-level Prometheus metrics.
// Domain modules carry their own metrics packages; this one only covers
// concerns shared by every route.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics.
type Metrics struct {
	HTTPLatency         *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec
}

// New creates a Metrics instance with all transport metrics registered.
func New() *Metrics {
	return &Metrics{
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aircover_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method, and status class",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),

		RateLimitRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircover_ratelimit_rejections_total",
			Help: "Requests rejected by rate limiting, by endpoint class",
		}, []string{"class"}),
	}
}

// ObserveHTTPLatency records one request's duration. Route is the chi route
// pattern, not the raw path, to keep cardinality bounded.
func (m *Metrics) ObserveHTTPLatency(route, method, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}

// IncrementRateLimitRejection records one rejected request.
func (m *Metrics) IncrementRateLimitRejection(class string) {
	if m != nil {
		m.RateLimitRejections.WithLabelValues(class).Inc()
	}
}
