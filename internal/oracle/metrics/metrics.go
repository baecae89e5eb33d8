package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the oracle consensus pipeline.
type Metrics struct {
	OraclesRegistered    prometheus.Counter
	StatusRequestsOpened prometheus.Counter

	// Responses split by the reported flight status label.
	ResponsesRecorded *prometheus.CounterVec

	// Resolutions split by the winning status label.
	FlightResolutions *prometheus.CounterVec

	// SweepDuration observes the airline-fault payout sweep, measured
	// inside the resolving submission.
	SweepDuration prometheus.Histogram
}

// New creates a Metrics instance with all oracle metrics registered.
func New() *Metrics {
	return &Metrics{
		OraclesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_oracles_registered_total",
			Help: "Total oracles admitted to the responder pool",
		}),

		StatusRequestsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_status_requests_opened_total",
			Help: "Total flight status requests opened",
		}),

		ResponsesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircover_oracle_responses_total",
			Help: "Total oracle responses recorded by reported status",
		}, []string{"status"}),

		FlightResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircover_flight_resolutions_total",
			Help: "Total status requests resolved by winning status",
		}, []string{"status"}),

		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aircover_payout_sweep_duration_seconds",
			Help:    "Duration of airline-fault payout sweeps",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementRegistered records one oracle registration.
func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.OraclesRegistered.Inc()
	}
}

// IncrementRequestOpened records one opened status request.
func (m *Metrics) IncrementRequestOpened() {
	if m != nil {
		m.StatusRequestsOpened.Inc()
	}
}

// IncrementResponse records one oracle response for the given status label.
func (m *Metrics) IncrementResponse(status string) {
	if m != nil {
		m.ResponsesRecorded.WithLabelValues(status).Inc()
	}
}

// IncrementResolution records one resolved request for the winning status.
func (m *Metrics) IncrementResolution(status string) {
	if m != nil {
		m.FlightResolutions.WithLabelValues(status).Inc()
	}
}

// ObserveSweep records the duration of one payout sweep.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
	}
}
