package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	dErrors "aircover/pkg/domain-errors"
)

// RequestKey is the opaque identifier of an oracle status request: a
// SHA-256 digest over (index, airline, flight, timestamp), hex encoded.
// The requester's drawn index is part of the key, the requester identity
// is not; two requesters drawing the same index for the same flight
// share one request record.
type RequestKey string

const requestKeyHexLen = 64

// ParseRequestKey validates a request key received at the edge.
func ParseRequestKey(s string) (RequestKey, error) {
	if len(s) != requestKeyHexLen {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "request key must be a 64-character hex digest")
	}
	for _, r := range s {
		if !isHexRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidArgument, "request key contains non-hex characters")
		}
	}
	return RequestKey(strings.ToLower(s)), nil
}

func (k RequestKey) String() string {
	return string(k)
}

// DeriveRequestKey computes the key for a status request. The digest covers
// the drawn index, the airline, the flight number, and the scheduled
// departure as unix seconds, so the same question always maps to the same
// record.
func DeriveRequestKey(index uint8, airline Address, flight FlightNumber, timestamp time.Time) RequestKey {
	h := sha256.New()
	h.Write([]byte{index})
	h.Write([]byte(airline))
	h.Write([]byte(flight))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp.Unix()))
	h.Write(ts[:])

	return RequestKey(hex.EncodeToString(h.Sum(nil)))
}
