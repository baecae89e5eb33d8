package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the escrow ledger. Counters carry no
// airline label; the airline population is unbounded.
type Metrics struct {
	PoliciesPurchased prometheus.Counter
	PremiumUnits      prometheus.Counter

	PayoutsCredited prometheus.Counter
	PayoutUnits     prometheus.Counter

	Withdrawals     prometheus.Counter
	WithdrawalUnits prometheus.Counter
}

// New creates a Metrics instance with all escrow metrics registered.
func New() *Metrics {
	return &Metrics{
		PoliciesPurchased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_policies_purchased_total",
			Help: "Total insurance policies purchased",
		}),
		PremiumUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_premium_units_total",
			Help: "Total chargeable premium units credited to airline escrow",
		}),
		PayoutsCredited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_payouts_credited_total",
			Help: "Total passenger payout credits from airline-fault sweeps",
		}),
		PayoutUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_payout_units_total",
			Help: "Total units credited to passenger balances by sweeps",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_withdrawals_total",
			Help: "Total passenger withdrawals",
		}),
		WithdrawalUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aircover_withdrawal_units_total",
			Help: "Total units withdrawn by passengers",
		}),
	}
}

// IncrementPolicyPurchased records one purchase and its chargeable premium.
func (m *Metrics) IncrementPolicyPurchased(premium float64) {
	if m != nil {
		m.PoliciesPurchased.Inc()
		m.PremiumUnits.Add(premium)
	}
}

// IncrementPayout records one passenger credit from a sweep.
func (m *Metrics) IncrementPayout(amount float64) {
	if m != nil {
		m.PayoutsCredited.Inc()
		m.PayoutUnits.Add(amount)
	}
}

// IncrementWithdrawal records one withdrawal and its amount.
func (m *Metrics) IncrementWithdrawal(amount float64) {
	if m != nil {
		m.Withdrawals.Inc()
		m.WithdrawalUnits.Add(amount)
	}
}
