package models

import (
	"time"

	"aircover/pkg/domain"
)

// IndexCount is the number of distinct indexes assigned to each oracle.
const IndexCount = 3

// Oracle is a registered flight-status reporter. Its three indexes are
// assigned at registration and never change; an oracle may only answer
// status requests whose index matches one of its own.
type Oracle struct {
	Address      domain.Address    `json:"address"`
	Indexes      [IndexCount]uint8 `json:"indexes"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// NewOracle creates an oracle with the given index assignment.
func NewOracle(address domain.Address, indexes [IndexCount]uint8, now time.Time) *Oracle {
	return &Oracle{
		Address:      address,
		Indexes:      indexes,
		RegisteredAt: now,
	}
}

// HasIndex reports whether the oracle holds the given index.
func (o *Oracle) HasIndex(index uint8) bool {
	for _, idx := range o.Indexes {
		if idx == index {
			return true
		}
	}
	return false
}
