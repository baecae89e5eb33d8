// Package service implements the airline admission lifecycle: bootstrap,
// propose-or-vote consensus, and fee-backed verification. All state changes
// run through the shared ledger's Execute serialization point; events and
// metrics are emitted only after a commit.
package service

import (
	"context"
	"log/slog"
	"sort"

	"aircover/internal/registry/metrics"
	"aircover/internal/registry/models"
	"aircover/internal/storage"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/ledgerevents"
	"aircover/pkg/requestcontext"
)

// ConsensusThreshold is the registered-airline population at which admission
// switches from direct registration to multi-party voting.
const ConsensusThreshold = 4

// Ledger is the serialized state store the registry operates on.
type Ledger interface {
	Execute(ctx context.Context, validate func(*storage.State) error, apply func(*storage.State)) error
	View(ctx context.Context, fn func(*storage.State)) error
}

// EventPublisher receives post-commit ledger events.
type EventPublisher interface {
	Emit(ctx context.Context, event ledgerevents.Event) error
}

// Service orchestrates airline admission and verification.
type Service struct {
	ledger  Ledger
	fee     domain.Units
	logger  *slog.Logger
	events  EventPublisher
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEventPublisher sets the post-commit event publisher.
func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

// WithMetrics sets the registry metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the shared ledger. fee is the one-time
// verification fee credited to escrow.
func New(ledger Ledger, fee domain.Units, opts ...Option) *Service {
	s := &Service{ledger: ledger, fee: fee}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap admits the genesis airline directly, with no vote. It runs once
// at startup and is idempotent so a re-run against a warm ledger is safe.
func (s *Service) Bootstrap(ctx context.Context, genesis domain.Address) error {
	if genesis.IsZero() {
		return dErrors.New(dErrors.CodeInvalidArgument, "genesis airline address must not be zero")
	}

	admitted := false
	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			airline := st.Airline(genesis)
			admitted = airline == nil || !airline.Registered
			return nil
		},
		func(st *storage.State) {
			if !admitted {
				return
			}
			now := requestcontext.Now(ctx)
			st.GetOrCreateAirline(genesis, now).ApplyAdmission(now)
		},
	)
	if err != nil {
		return err
	}
	if admitted {
		s.emit(ctx, ledgerevents.Event{
			Action:  ledgerevents.ActionAirlineRegistered,
			Actor:   genesis,
			Airline: genesis,
		})
		s.metrics.IncrementRegistered("bootstrap")
	}
	return nil
}

// admissionPlan is the outcome staged by RegisterOrVote validation.
type admissionPlan int

const (
	planSelfVote admissionPlan = iota
	planFastPath
	planVote
	planVoteAndAdmit
)

// RegisterOrVote proposes the candidate for admission. Below the consensus
// threshold a registered proposer admits the candidate directly; at or above
// it, each registered airline contributes at most one vote and the candidate
// is admitted once votes reach half the registered population (integer
// division, population counted before admission).
func (s *Service) RegisterOrVote(ctx context.Context, candidate domain.Address) (models.StatusSnapshot, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.StatusSnapshot{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if candidate.IsZero() {
		return models.StatusSnapshot{}, dErrors.New(dErrors.CodeInvalidArgument, "candidate address must not be zero")
	}

	now := requestcontext.Now(ctx)

	var (
		plan      admissionPlan
		firstVote bool
		snapshot  models.StatusSnapshot
	)

	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			proposer := st.Airline(caller)
			if proposer == nil || !proposer.Registered {
				return dErrors.New(dErrors.CodePermissionDenied, "proposer is not a registered airline")
			}

			cand := st.Airline(candidate)
			if cand != nil {
				if err := cand.CanAdmit(); err != nil {
					return err
				}
			}

			if st.RegisteredCount() < ConsensusThreshold {
				plan = planFastPath
				return nil
			}

			// Self-votes never count toward consensus; they return the
			// current snapshot without error.
			if caller == candidate {
				plan = planSelfVote
				return nil
			}

			if cand != nil {
				if err := cand.CanAcceptVote(caller); err != nil {
					return err
				}
			}

			votes := 1
			if cand != nil {
				votes = cand.VoteCount() + 1
			}
			firstVote = votes == 1

			if votes >= st.RegisteredCount()/2 {
				plan = planVoteAndAdmit
			} else {
				plan = planVote
			}
			return nil
		},
		func(st *storage.State) {
			cand := st.GetOrCreateAirline(candidate, now)
			switch plan {
			case planFastPath:
				cand.ApplyAdmission(now)
			case planVote:
				cand.ApplyVote(caller)
			case planVoteAndAdmit:
				cand.ApplyVote(caller)
				cand.ApplyAdmission(now)
			}
			snapshot = cand.Snapshot()
		},
	)
	if err != nil {
		return models.StatusSnapshot{}, err
	}

	switch plan {
	case planFastPath:
		s.emit(ctx, ledgerevents.Event{
			Action:  ledgerevents.ActionAirlineRegistered,
			Actor:   caller,
			Airline: candidate,
		})
		s.metrics.IncrementRegistered("fast")
	case planVote:
		if firstVote {
			s.emit(ctx, ledgerevents.Event{
				Action:  ledgerevents.ActionAirlineProposed,
				Actor:   caller,
				Airline: candidate,
			})
		}
		s.emit(ctx, ledgerevents.Event{
			Action:  ledgerevents.ActionVoteCast,
			Actor:   caller,
			Airline: candidate,
		})
		s.metrics.IncrementVote()
	case planVoteAndAdmit:
		s.emit(ctx, ledgerevents.Event{
			Action:  ledgerevents.ActionVoteCast,
			Actor:   caller,
			Airline: candidate,
		})
		s.emit(ctx, ledgerevents.Event{
			Action:  ledgerevents.ActionAirlineRegistered,
			Actor:   caller,
			Airline: candidate,
		})
		s.metrics.IncrementVote()
		s.metrics.IncrementRegistered("consensus")
	}

	return snapshot, nil
}

// Verify credits the caller's escrow by exactly the verification fee and
// marks the airline verified. Excess payment is returned as change due, never
// credited to escrow.
func (s *Service) Verify(ctx context.Context) (domain.Units, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}

	payment := requestcontext.Payment(ctx)
	now := requestcontext.Now(ctx)

	var change domain.Units
	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			airline := st.Airline(caller)
			if airline == nil || !airline.Registered {
				return dErrors.New(dErrors.CodePermissionDenied, "airline is not registered")
			}
			if err := airline.CanVerify(payment, s.fee); err != nil {
				return err
			}
			change = payment - s.fee
			return nil
		},
		func(st *storage.State) {
			st.Airline(caller).ApplyVerification(s.fee, now)
		},
	)
	if err != nil {
		return 0, err
	}

	s.emit(ctx, ledgerevents.Event{
		Action:  ledgerevents.ActionAirlineVerified,
		Actor:   caller,
		Airline: caller,
		Amount:  s.fee,
	})
	s.metrics.IncrementVerified(float64(s.fee))

	return change, nil
}

// Status returns the admission snapshot for one airline.
func (s *Service) Status(ctx context.Context, address domain.Address) (models.StatusSnapshot, error) {
	if address.IsZero() {
		return models.StatusSnapshot{}, dErrors.New(dErrors.CodeInvalidArgument, "airline address must not be zero")
	}

	var (
		snapshot models.StatusSnapshot
		found    bool
	)
	err := s.ledger.View(ctx, func(st *storage.State) {
		if airline := st.Airline(address); airline != nil {
			snapshot = airline.Snapshot()
			found = true
		}
	})
	if err != nil {
		return models.StatusSnapshot{}, err
	}
	if !found {
		return models.StatusSnapshot{}, dErrors.New(dErrors.CodeNotFound, "airline not found")
	}
	return snapshot, nil
}

// List returns snapshots for every known airline, candidates included,
// ordered by address.
func (s *Service) List(ctx context.Context) ([]models.StatusSnapshot, error) {
	var snapshots []models.StatusSnapshot
	err := s.ledger.View(ctx, func(st *storage.State) {
		snapshots = make([]models.StatusSnapshot, 0, len(st.Airlines))
		for _, airline := range st.Airlines {
			snapshots = append(snapshots, airline.Snapshot())
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Airline < snapshots[j].Airline
	})
	return snapshots, nil
}

func (s *Service) emit(ctx context.Context, event ledgerevents.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"event", string(event.Action),
			"airline", event.Airline.String(),
			"actor", event.Actor.String(),
			"request_id", event.RequestID,
			"log_type", "ledger_event",
		)
	}
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "ledger event emission failed",
			"event", string(event.Action),
			"error", err,
		)
	}
}
