package models

import (
	"time"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
)

// Airline is the aggregate root for one airline's admission lifecycle and
// escrow account.
//
// Invariants:
//   - Voters never exceeds the registered-airline count (each registered
//     airline votes at most once per candidate, and only registered
//     airlines may vote)
//   - Verified can only become true after the one-time verification fee
//     has been credited to escrow
//   - Records are never destroyed; the registry is append-only
//   - Passengers preserves insurance purchase order
//
// Admission is one-way: Registered never reverts, so a candidate's voter
// set stops mattering the moment it is admitted. The set is kept for audit
// queries rather than cleared.
type Airline struct {
	Address domain.Address `json:"address"`

	Registered bool `json:"registered"`
	Verified   bool `json:"verified"`

	// Voters records which registered airlines voted for this candidate's
	// admission, at most one vote per (candidate, voter) pair.
	Voters map[domain.Address]struct{} `json:"-"`

	// EscrowBalance holds the funds available to pay insured passengers.
	EscrowBalance domain.Units `json:"escrow_balance"`

	// Passengers lists insurance purchasers in purchase order.
	Passengers []domain.Address `json:"-"`

	CreatedAt    time.Time `json:"created_at"`
	RegisteredAt time.Time `json:"registered_at"`
	VerifiedAt   time.Time `json:"verified_at"`
}

// NewAirline creates an unregistered airline record. Records come into
// existence on first reference (a vote names a candidate that has no record
// yet) as well as on explicit registration.
func NewAirline(address domain.Address, now time.Time) *Airline {
	return &Airline{
		Address:   address,
		Voters:    make(map[domain.Address]struct{}),
		CreatedAt: now,
	}
}

// CanAdmit checks whether the airline may transition to Registered.
func (a *Airline) CanAdmit() error {
	if a.Registered {
		return dErrors.New(dErrors.CodeAlreadyExists, "airline is already registered")
	}
	return nil
}

// ApplyAdmission transitions the airline to Registered. Call CanAdmit first.
func (a *Airline) ApplyAdmission(now time.Time) {
	a.Registered = true
	a.RegisteredAt = now
}

// HasVoted reports whether the proposer already voted for this candidate.
func (a *Airline) HasVoted(proposer domain.Address) bool {
	_, ok := a.Voters[proposer]
	return ok
}

// CanAcceptVote checks whether a vote from the proposer may be recorded.
func (a *Airline) CanAcceptVote(proposer domain.Address) error {
	if a.Registered {
		return dErrors.New(dErrors.CodeAlreadyExists, "airline is already registered")
	}
	if a.HasVoted(proposer) {
		return dErrors.New(dErrors.CodeAlreadyExists, "proposer has already voted for this airline")
	}
	return nil
}

// ApplyVote records the proposer's vote. Call CanAcceptVote first.
func (a *Airline) ApplyVote(proposer domain.Address) {
	a.Voters[proposer] = struct{}{}
}

// VoteCount returns the number of distinct recorded votes.
func (a *Airline) VoteCount() int {
	return len(a.Voters)
}

// CanVerify checks whether the airline may transition to Verified with the
// attached payment.
func (a *Airline) CanVerify(payment, fee domain.Units) error {
	if !a.Registered {
		return dErrors.New(dErrors.CodePermissionDenied, "airline is not registered")
	}
	if a.Verified {
		return dErrors.New(dErrors.CodeAlreadyExists, "airline is already verified")
	}
	if payment < fee {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "verification requires a fee of %s units", fee)
	}
	return nil
}

// ApplyVerification credits escrow by exactly the fee and marks the airline
// Verified. Call CanVerify first; excess payment is the caller's change, not
// escrow.
func (a *Airline) ApplyVerification(fee domain.Units, now time.Time) {
	a.EscrowBalance += fee
	a.Verified = true
	a.VerifiedAt = now
}

// Eligible reports whether passengers may buy insurance against this
// airline.
func (a *Airline) Eligible() bool {
	return a.Registered && a.Verified
}

// StatusSnapshot is the admission-state view returned by registry
// operations and queries.
type StatusSnapshot struct {
	Airline    domain.Address `json:"airline"`
	Registered bool           `json:"registered"`
	Verified   bool           `json:"verified"`
	Votes      int            `json:"votes"`
	Escrow     domain.Units   `json:"escrow_balance"`
	Passengers int            `json:"passengers"`
}

// Snapshot captures the airline's current admission state.
func (a *Airline) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		Airline:    a.Address,
		Registered: a.Registered,
		Verified:   a.Verified,
		Votes:      a.VoteCount(),
		Escrow:     a.EscrowBalance,
		Passengers: len(a.Passengers),
	}
}
