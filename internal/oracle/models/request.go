package models

import (
	"time"

	"aircover/pkg/domain"
)

// Majority is the number of matching oracle responses required to resolve a
// status request.
const Majority = 3

// StatusRequest is an open question about one flight's status, answerable
// only by oracles holding its index.
//
// Invariants:
//   - Resolved flips to true exactly once, at the moment the Majority-th
//     matching response arrives, and never reverts
//   - each oracle responds at most once per request; repeats are ignored
//   - responses arriving after resolution are recorded but never re-trigger
//     resolution or payouts
type StatusRequest struct {
	Key       domain.RequestKey   `json:"key"`
	Index     uint8               `json:"index"`
	Airline   domain.Address      `json:"airline"`
	Flight    domain.FlightNumber `json:"flight"`
	Timestamp time.Time           `json:"timestamp"`
	Requester domain.Address      `json:"requester"`
	OpenedAt  time.Time           `json:"opened_at"`

	Resolved       bool              `json:"resolved"`
	ResolvedStatus domain.StatusCode `json:"resolved_status"`
	ResolvedAt     time.Time         `json:"resolved_at"`

	// Responses groups responder addresses by the status they reported.
	Responses map[domain.StatusCode][]domain.Address `json:"-"`
	// Responded tracks which oracles have already answered.
	Responded map[domain.Address]struct{} `json:"-"`
}

// NewStatusRequest opens a request for the given flight keyed by the derived
// request key.
func NewStatusRequest(key domain.RequestKey, index uint8, airline domain.Address, flight domain.FlightNumber, timestamp time.Time, requester domain.Address, now time.Time) *StatusRequest {
	return &StatusRequest{
		Key:       key,
		Index:     index,
		Airline:   airline,
		Flight:    flight,
		Timestamp: timestamp,
		Requester: requester,
		OpenedAt:  now,
		Responses: make(map[domain.StatusCode][]domain.Address),
		Responded: make(map[domain.Address]struct{}),
	}
}

// HasResponded reports whether the oracle already answered this request.
func (r *StatusRequest) HasResponded(oracle domain.Address) bool {
	_, ok := r.Responded[oracle]
	return ok
}

// ApplyResponse records one oracle's answer and returns the count of
// responses now agreeing on that status.
func (r *StatusRequest) ApplyResponse(oracle domain.Address, status domain.StatusCode) int {
	if r.Responses == nil {
		r.Responses = make(map[domain.StatusCode][]domain.Address)
	}
	if r.Responded == nil {
		r.Responded = make(map[domain.Address]struct{})
	}
	r.Responses[status] = append(r.Responses[status], oracle)
	r.Responded[oracle] = struct{}{}
	return len(r.Responses[status])
}

// ApplyResolution closes the request on the winning status.
func (r *StatusRequest) ApplyResolution(status domain.StatusCode, now time.Time) {
	r.Resolved = true
	r.ResolvedStatus = status
	r.ResolvedAt = now
}

// ResponseCount returns how many responses agree on the given status.
func (r *StatusRequest) ResponseCount(status domain.StatusCode) int {
	return len(r.Responses[status])
}

// TotalResponses returns the number of oracles that have answered.
func (r *StatusRequest) TotalResponses() int {
	return len(r.Responded)
}

// Snapshot is the externally visible view of a status request.
type Snapshot struct {
	Key            domain.RequestKey   `json:"key"`
	Index          uint8               `json:"index"`
	Airline        domain.Address      `json:"airline"`
	Flight         domain.FlightNumber `json:"flight"`
	Timestamp      time.Time           `json:"timestamp"`
	OpenedAt       time.Time           `json:"opened_at"`
	Resolved       bool                `json:"resolved"`
	ResolvedStatus domain.StatusCode   `json:"resolved_status"`
	ResolvedAt     *time.Time          `json:"resolved_at,omitempty"`
	Responses      map[string]int      `json:"responses"`
}

// Snapshot returns a copy safe to serve outside the ledger lock.
func (r *StatusRequest) Snapshot() Snapshot {
	snap := Snapshot{
		Key:            r.Key,
		Index:          r.Index,
		Airline:        r.Airline,
		Flight:         r.Flight,
		Timestamp:      r.Timestamp,
		OpenedAt:       r.OpenedAt,
		Resolved:       r.Resolved,
		ResolvedStatus: r.ResolvedStatus,
		Responses:      make(map[string]int, len(r.Responses)),
	}
	if r.Resolved {
		at := r.ResolvedAt
		snap.ResolvedAt = &at
	}
	for status, responders := range r.Responses {
		snap.Responses[status.String()] = len(responders)
	}
	return snap
}
