// Package metrics exposes rate limiting counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Checks split by endpoint class and outcome.
	Checks *prometheus.CounterVec

	// Breaker transitions of the bucket store fallback.
	StoreDegradations prometheus.Counter
}

// New creates a Metrics instance with all rate limit metrics registered.
func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircover_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint class and outcome",
		}, []string{"class", "outcome"}),

		StoreDegradations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_ratelimit_store_degradations_total",
			Help: "Times the bucket store degraded to in-memory windows",
		}),
	}
}

// IncrementCheck records one check outcome. Nil-safe.
func (m *Metrics) IncrementCheck(class string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "throttled"
	}
	m.Checks.WithLabelValues(class, outcome).Inc()
}

// IncrementStoreDegradation records a fallback activation. Nil-safe.
func (m *Metrics) IncrementStoreDegradation() {
	if m == nil {
		return
	}
	m.StoreDegradations.Inc()
}
