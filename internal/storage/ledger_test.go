package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
)

type LedgerSuite struct {
	suite.Suite
	ledger *Ledger
	ctx    context.Context
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewLedger()
	s.ctx = context.Background()
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) TestExecute() {
	addr, err := domain.ParseAddress("0x00000000000000000000000000000000000000a1")
	s.Require().NoError(err)

	s.Run("applies mutation after validation passes", func() {
		err := s.ledger.Execute(s.ctx,
			func(st *State) error { return nil },
			func(st *State) {
				st.GetOrCreateAirline(addr, time.Now())
				st.Treasury += 100
			},
		)
		s.Require().NoError(err)

		s.Require().NoError(s.ledger.View(s.ctx, func(st *State) {
			s.NotNil(st.Airline(addr))
			s.Equal(domain.Units(100), st.Treasury)
		}))
	})

	s.Run("validation failure leaves state untouched", func() {
		ledger := NewLedger()
		err := ledger.Execute(s.ctx,
			func(st *State) error {
				return dErrors.New(dErrors.CodePreconditionFailed, "insufficient escrow")
			},
			func(st *State) {
				st.Treasury += 999
			},
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		s.Require().NoError(ledger.View(s.ctx, func(st *State) {
			s.Equal(domain.Units(0), st.Treasury)
		}))
	})

	s.Run("nil validate runs apply unconditionally", func() {
		ledger := NewLedger()
		err := ledger.Execute(s.ctx, nil, func(st *State) { st.Treasury = 7 })
		s.Require().NoError(err)

		s.Require().NoError(ledger.View(s.ctx, func(st *State) {
			s.Equal(domain.Units(7), st.Treasury)
		}))
	})

	s.Run("cancelled context short-circuits", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := s.ledger.Execute(ctx, nil, func(st *State) { called = true })
		s.Require().ErrorIs(err, context.Canceled)
		s.False(called)
	})
}

// TestConcurrentExecutes verifies that parallel increments through Execute
// never lose updates: the final balance equals the sum of all credits.
func (s *LedgerSuite) TestConcurrentExecutes() {
	addr, err := domain.ParseAddress("0x00000000000000000000000000000000000000b2")
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.Execute(s.ctx, nil, func(st *State) {
		airline := st.GetOrCreateAirline(addr, time.Now())
		airline.Registered = true
	}))

	const goroutines = 100
	const credit = domain.Units(10)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.ledger.Execute(s.ctx,
				func(st *State) error {
					if st.Airline(addr) == nil {
						return dErrors.New(dErrors.CodeNotFound, "airline not found")
					}
					return nil
				},
				func(st *State) {
					st.Airline(addr).EscrowBalance += credit
				},
			)
		}()
	}
	wg.Wait()

	s.Require().NoError(s.ledger.View(s.ctx, func(st *State) {
		s.Equal(domain.Units(goroutines)*credit, st.Airline(addr).EscrowBalance)
	}))
}

func (s *LedgerSuite) TestRegisteredCount() {
	now := time.Now()
	a1, _ := domain.ParseAddress("0x00000000000000000000000000000000000000c1")
	a2, _ := domain.ParseAddress("0x00000000000000000000000000000000000000c2")
	a3, _ := domain.ParseAddress("0x00000000000000000000000000000000000000c3")

	s.Require().NoError(s.ledger.Execute(s.ctx, nil, func(st *State) {
		st.GetOrCreateAirline(a1, now).Registered = true
		st.GetOrCreateAirline(a2, now).Registered = true
		st.GetOrCreateAirline(a3, now) // candidate only
	}))

	s.Require().NoError(s.ledger.View(s.ctx, func(st *State) {
		s.Equal(2, st.RegisteredCount())
	}))
}
