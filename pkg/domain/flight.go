package domain

import (
	"strings"

	dErrors "aircover/pkg/domain-errors"
)

// FlightNumber is the opaque flight identifier callers attach to status
// requests and insurance-relevant events (e.g. "ND1309"). The ledger does
// not interpret it beyond equality; no flight metadata is stored.
type FlightNumber string

const maxFlightNumberLen = 64

// ParseFlightNumber validates a flight identifier. Whitespace is trimmed;
// the result must be non-empty and at most 64 characters.
func ParseFlightNumber(s string) (FlightNumber, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "flight number cannot be empty")
	}
	if len(s) > maxFlightNumberLen {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "flight number must be 64 characters or less")
	}
	return FlightNumber(s), nil
}

func (f FlightNumber) String() string {
	return string(f)
}
