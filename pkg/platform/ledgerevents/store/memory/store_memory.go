package memory

import (
	"context"
	"sync"

	"aircover/pkg/domain"
	"aircover/pkg/platform/ledgerevents"
)

// InMemoryStore is an append-only event store indexed by airline.
type InMemoryStore struct {
	mu        sync.RWMutex
	byAirline map[domain.Address][]ledgerevents.Event
	ordered   []ledgerevents.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byAirline: make(map[domain.Address][]ledgerevents.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAirline = make(map[domain.Address][]ledgerevents.Event)
	s.ordered = nil
}

func (s *InMemoryStore) Append(_ context.Context, event ledgerevents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAirline[event.Airline] = append(s.byAirline[event.Airline], event)
	s.ordered = append(s.ordered, event)
	return nil
}

func (s *InMemoryStore) ListByAirline(_ context.Context, airline domain.Address) ([]ledgerevents.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledgerevents.Event{}, s.byAirline[airline]...), nil
}

func (s *InMemoryStore) ListByAction(_ context.Context, action ledgerevents.Action) ([]ledgerevents.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []ledgerevents.Event
	for _, event := range s.ordered {
		if event.Action == action {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

// ListAll returns every stored event in emission order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]ledgerevents.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledgerevents.Event{}, s.ordered...), nil
}

// ListRecent returns the most recent N events in emission order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]ledgerevents.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.ordered) - limit
	if start < 0 {
		start = 0
	}
	return append([]ledgerevents.Event{}, s.ordered[start:]...), nil
}
