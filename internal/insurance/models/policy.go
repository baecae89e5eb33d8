package models

import (
	"time"

	"aircover/pkg/domain"
)

// PolicyKey identifies a policy. At most one policy exists per
// (airline, passenger) pair.
type PolicyKey struct {
	Airline   domain.Address
	Passenger domain.Address
}

// Policy is an insurance purchase against one airline by one passenger.
//
// Invariants:
//   - Premium is positive and never exceeds the configured cap (the cap is
//     enforced at purchase; excess payment becomes change)
//   - Settled flips to true at most once, when an airline-fault resolution
//     pays the policy out, and never reverts
type Policy struct {
	Airline   domain.Address `json:"airline"`
	Passenger domain.Address `json:"passenger"`

	// Premium is the chargeable amount actually credited to the airline's
	// escrow, after the cap.
	Premium domain.Units `json:"premium"`

	PurchasedAt time.Time `json:"purchased_at"`

	// Settled marks the policy as paid out. A flight can resolve at fault
	// through two independent request keys; only the first resolution
	// credits the passenger.
	Settled   bool      `json:"settled"`
	SettledAt time.Time `json:"settled_at"`
}

// NewPolicy creates an active policy for the chargeable premium.
func NewPolicy(airline, passenger domain.Address, premium domain.Units, now time.Time) *Policy {
	return &Policy{
		Airline:     airline,
		Passenger:   passenger,
		Premium:     premium,
		PurchasedAt: now,
	}
}

// Key returns the policy's identity.
func (p *Policy) Key() PolicyKey {
	return PolicyKey{Airline: p.Airline, Passenger: p.Passenger}
}

// Active reports whether the policy can still pay out: it exists, carries a
// positive premium, and has not been settled. Activity is derived, not stored.
func (p *Policy) Active() bool {
	return p != nil && p.Premium > 0 && !p.Settled
}

// Payout computes the airline-fault credit: premium times 3/2, truncating.
func (p *Policy) Payout() domain.Units {
	return p.Premium * 3 / 2
}

// ApplySettlement marks the policy paid out.
func (p *Policy) ApplySettlement(now time.Time) {
	p.Settled = true
	p.SettledAt = now
}

// PayoutCredit is one passenger's share of a sweep.
type PayoutCredit struct {
	Passenger domain.Address `json:"passenger"`
	Amount    domain.Units   `json:"amount"`
}

// SweepPlan is the staged outcome of an airline-fault payout sweep: computed
// during validation, applied only if the whole plan is payable. Sweeps are
// all-or-nothing; a plan that the escrow cannot cover is never partially
// applied.
type SweepPlan struct {
	Airline domain.Address
	Status  domain.StatusCode
	Total   domain.Units
	Credits []PayoutCredit
}

// Empty reports whether the sweep found no payable policies.
func (p *SweepPlan) Empty() bool {
	return p == nil || len(p.Credits) == 0
}
