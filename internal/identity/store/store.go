// Package store persists participant credentials. Participants are
// off-ledger: they gate API access and never appear in consensus state.
package store

import (
	"context"

	"aircover/internal/identity/models"
	"aircover/pkg/domain"
)

// ParticipantStore is the persistence boundary for participant records.
//
// Error Contract:
// - Return sentinel.ErrNotFound when the requested participant does not exist
// - Return sentinel.ErrConflict when creating a participant that already exists
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type ParticipantStore interface {
	Create(ctx context.Context, participant *models.Participant) error
	FindByAddress(ctx context.Context, address domain.Address) (*models.Participant, error)
	Update(ctx context.Context, participant *models.Participant) error
}
