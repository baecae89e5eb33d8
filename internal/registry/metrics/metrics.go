package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the airline registry.
type Metrics struct {
	// Admissions split by path ("fast" below the consensus threshold,
	// "consensus" once voting is required).
	AirlinesRegistered *prometheus.CounterVec

	VotesCast         prometheus.Counter
	AirlinesVerified  prometheus.Counter
	VerificationUnits prometheus.Counter
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		AirlinesRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aircover_airlines_registered_total",
			Help: "Total airlines admitted to the registry by admission path",
		}, []string{"path"}), // path: "fast", "consensus", "bootstrap"

		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_votes_cast_total",
			Help: "Total admission votes recorded",
		}),

		AirlinesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_airlines_verified_total",
			Help: "Total airlines that paid the verification fee",
		}),

		VerificationUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_verification_units_total",
			Help: "Total units credited to escrow through verification fees",
		}),
	}
}

// IncrementRegistered records one admission via the given path.
func (m *Metrics) IncrementRegistered(path string) {
	if m != nil {
		m.AirlinesRegistered.WithLabelValues(path).Inc()
	}
}

// IncrementVote records one admission vote.
func (m *Metrics) IncrementVote() {
	if m != nil {
		m.VotesCast.Inc()
	}
}

// IncrementVerified records one verification and its escrow credit.
func (m *Metrics) IncrementVerified(fee float64) {
	if m != nil {
		m.AirlinesVerified.Inc()
		m.VerificationUnits.Add(fee)
	}
}
