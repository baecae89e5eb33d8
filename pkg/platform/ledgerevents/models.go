// Package ledgerevents defines the event model the ledger emits after
// committed operations. Events are operational notifications: services emit
// them post-commit, consumers observe them, and they are never part of the
// serialized ledger state.
package ledgerevents

import (
	"context"
	"time"

	"aircover/pkg/domain"
)

// Category classifies ledger events by their primary audience.
// This enables different retention, sampling, and routing per category.
type Category string

const (
	// CategoryAdmission covers the airline admission lifecycle.
	// Examples: proposals, votes, registrations, verification.
	CategoryAdmission Category = "admission"

	// CategoryFunds covers value movement on the ledger.
	// Examples: policy purchases, payout credits, withdrawals.
	CategoryFunds Category = "funds"

	// CategoryOracle covers the flight-status resolution flow.
	// These are high-volume and can be sampled.
	CategoryOracle Category = "oracle"
)

// Action identifies what happened.
type Action string

const (
	// Admission events
	ActionAirlineProposed   Action = "airline_proposed"
	ActionVoteCast          Action = "vote_cast"
	ActionAirlineRegistered Action = "airline_registered"
	ActionAirlineVerified   Action = "airline_verified"

	// Funds events
	ActionPolicyPurchased Action = "policy_purchased"
	ActionPayoutCredited  Action = "payout_credited"
	ActionFundsWithdrawn  Action = "funds_withdrawn"

	// Oracle events
	ActionOracleRegistered       Action = "oracle_registered"
	ActionStatusRequestOpened    Action = "status_request_opened"
	ActionOracleResponseRecorded Action = "oracle_response_recorded"
	ActionFlightStatusResolved   Action = "flight_status_resolved"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]Category{
	ActionAirlineProposed:   CategoryAdmission,
	ActionVoteCast:          CategoryAdmission,
	ActionAirlineRegistered: CategoryAdmission,
	ActionAirlineVerified:   CategoryAdmission,

	ActionPolicyPurchased: CategoryFunds,
	ActionPayoutCredited:  CategoryFunds,
	ActionFundsWithdrawn:  CategoryFunds,

	ActionOracleRegistered:       CategoryOracle,
	ActionStatusRequestOpened:    CategoryOracle,
	ActionOracleResponseRecorded: CategoryOracle,
	ActionFlightStatusResolved:   CategoryOracle,
}

// Category returns the Category for this action.
// Unknown actions default to CategoryOracle.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOracle
}

// Event is emitted from domain logic to capture committed ledger actions.
// Keep it transport-agnostic so stores and sinks can fan out; JSON tags fix
// the wire shape for external sinks.
type Event struct {
	EventID  string   `json:"event_id"`
	Action   Action   `json:"action"`
	Category Category `json:"category"`

	// Actor is the participant whose call produced the event.
	Actor domain.Address `json:"actor,omitempty"`
	// Airline is the airline the event concerns. For flight events this is
	// the operating airline; for admission events, the candidate.
	Airline domain.Address      `json:"airline,omitempty"`
	Flight  domain.FlightNumber `json:"flight,omitempty"`
	// Timestamp is the scheduled flight time (unix seconds), when relevant.
	Timestamp  int64             `json:"timestamp,omitempty"`
	StatusCode domain.StatusCode `json:"status_code"`
	Amount     domain.Units      `json:"amount,omitempty"`
	RequestKey domain.RequestKey `json:"request_key,omitempty"`

	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string    `json:"request_id,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Store persists emitted events and answers observer queries.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAirline(ctx context.Context, airline domain.Address) ([]Event, error)
	ListByAction(ctx context.Context, action Action) ([]Event, error)
}

// Sink receives events for delivery outside the process (e.g. Kafka).
// Sinks are best-effort: delivery failures must not fail ledger operations.
type Sink interface {
	Produce(ctx context.Context, event Event) error
	Close()
}
