// Package models defines the rate limiting vocabulary: endpoint classes,
// bucket keys, and check results.
package models

import "time"

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassAuth covers identity endpoints: provisioning and token issuance.
	ClassAuth EndpointClass = "auth"
	// ClassMutation covers ledger mutations: admissions, purchases,
	// oracle registration and responses, withdrawals.
	ClassMutation EndpointClass = "mutation"
	// ClassRead covers state queries and snapshots.
	ClassRead EndpointClass = "read"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassAuth, ClassMutation, ClassRead:
		return true
	}
	return false
}

// String returns the string representation.
func (c EndpointClass) String() string {
	return string(c)
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the API response when a limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
