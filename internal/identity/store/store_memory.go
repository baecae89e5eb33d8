package store

import (
	"context"
	"fmt"
	"sync"

	"aircover/internal/identity/models"
	"aircover/pkg/domain"
	"aircover/pkg/platform/sentinel"
)

// InMemoryParticipantStore stores participants in memory for tests/dev.
type InMemoryParticipantStore struct {
	mu           sync.RWMutex
	participants map[domain.Address]*models.Participant
}

// NewInMemory constructs an empty in-memory participant store.
func NewInMemory() *InMemoryParticipantStore {
	return &InMemoryParticipantStore{participants: make(map[domain.Address]*models.Participant)}
}

func (s *InMemoryParticipantStore) Create(_ context.Context, participant *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[participant.Address]; ok {
		return fmt.Errorf("participant %s already provisioned: %w", participant.Address, sentinel.ErrConflict)
	}
	copied := *participant
	s.participants[participant.Address] = &copied
	return nil
}

func (s *InMemoryParticipantStore) FindByAddress(_ context.Context, address domain.Address) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.participants[address]
	if !ok {
		return nil, fmt.Errorf("participant not found: %w", sentinel.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryParticipantStore) Update(_ context.Context, participant *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[participant.Address]; !ok {
		return fmt.Errorf("participant not found: %w", sentinel.ErrNotFound)
	}
	copied := *participant
	s.participants[participant.Address] = &copied
	return nil
}
