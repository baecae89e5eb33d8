// Package service implements the oracle consensus pipeline: fee-backed oracle
// registration with immutable index assignment, flight status requests keyed
// by a drawn index, and majority resolution over submitted responses. A
// resolution at an airline-fault status runs the insurance payout sweep inside
// the same serialized ledger operation, so a resolved request and its payouts
// commit or fail together.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	insurancemodels "aircover/internal/insurance/models"
	"aircover/internal/oracle/metrics"
	"aircover/internal/oracle/models"
	"aircover/internal/storage"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/ledgerevents"
	"aircover/pkg/requestcontext"
)

var tracer = otel.Tracer("aircover/internal/oracle")

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Ledger is the serialized state store the oracle pipeline operates on.
type Ledger interface {
	Execute(ctx context.Context, validate func(*storage.State) error, apply func(*storage.State)) error
	View(ctx context.Context, fn func(*storage.State)) error
}

// EventPublisher receives post-commit ledger events.
type EventPublisher interface {
	Emit(ctx context.Context, event ledgerevents.Event) error
}

// IndexSource draws pseudo-random indexes for oracle assignment and status
// requests.
type IndexSource interface {
	Roll(caller domain.Address) uint8
	RollTriple(caller domain.Address) [models.IndexCount]uint8
}

// PayoutSweeper stages and applies the airline-fault payout sweep. The three
// phases mirror the ledger's validate/apply split: Plan runs during
// validation and must not mutate, Apply runs during the same operation's
// apply phase, and Record emits events after the commit.
type PayoutSweeper interface {
	PlanAirlineFault(st *storage.State, airline domain.Address, status domain.StatusCode) (*insurancemodels.SweepPlan, error)
	ApplyAirlineFault(st *storage.State, plan *insurancemodels.SweepPlan, now time.Time)
	RecordAirlineFault(ctx context.Context, plan *insurancemodels.SweepPlan)
}

// Service orchestrates oracle registration and flight status resolution.
type Service struct {
	ledger  Ledger
	dice    IndexSource
	fee     domain.Units
	sweeper PayoutSweeper
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

// WithMetrics sets the oracle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the shared ledger. fee is the oracle
// registration fee, retained in full by the treasury. sweeper settles
// airline-fault resolutions against the insurance escrow.
func New(ledger Ledger, dice IndexSource, fee domain.Units, sweeper PayoutSweeper, opts ...Option) *Service {
	s := &Service{
		ledger:  ledger,
		dice:    dice,
		fee:     fee,
		sweeper: sweeper,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register admits the caller to the oracle pool and assigns three distinct
// indexes. The attached payment must cover the registration fee and is
// retained in full by the treasury; no change is due.
func (s *Service) Register(ctx context.Context) ([models.IndexCount]uint8, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return [models.IndexCount]uint8{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}

	payment := requestcontext.Payment(ctx)
	now := requestcontext.Now(ctx)

	// The nonce behind the draw advances even if validation fails below;
	// only the applied assignment is ever stored.
	indexes := s.dice.RollTriple(caller)

	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			if payment < s.fee {
				return dErrors.New(dErrors.CodePreconditionFailed, "payment does not cover the oracle registration fee")
			}
			if st.Oracle(caller) != nil {
				return dErrors.New(dErrors.CodeAlreadyExists, "oracle is already registered")
			}
			return nil
		},
		func(st *storage.State) {
			st.Oracles[caller] = models.NewOracle(caller, indexes, now)
			st.Treasury += payment
		},
	)
	if err != nil {
		return [models.IndexCount]uint8{}, err
	}

	s.emit(ctx, ledgerevents.Event{
		Action: ledgerevents.ActionOracleRegistered,
		Actor:  caller,
		Amount: payment,
	})
	s.metrics.IncrementRegistered()

	return indexes, nil
}

// RequestStatus opens a status request for one flight. The caller draws one
// index in the oracle index space; the request key is derived from that index
// and the flight coordinates, so a second request drawing the same index for
// the same flight lands on (and resets) the same record.
func (s *Service) RequestStatus(ctx context.Context, airline domain.Address, flight domain.FlightNumber, timestamp time.Time) (models.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "oracle.RequestStatus")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.Snapshot{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if airline.IsZero() {
		return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidArgument, "airline address must not be zero")
	}
	if flight == "" {
		return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidArgument, "flight number must not be empty")
	}

	now := requestcontext.Now(ctx)
	index := s.dice.Roll(caller)
	key := domain.DeriveRequestKey(index, airline, flight, timestamp)

	span.SetAttributes(
		attribute.String("aircover.request_key", key.String()),
		attribute.Int("aircover.index", int(index)),
		attribute.String("aircover.flight", flight.String()),
	)

	var snapshot models.Snapshot
	err := s.ledger.Execute(ctx, nil, func(st *storage.State) {
		request := models.NewStatusRequest(key, index, airline, flight, timestamp, caller, now)
		st.Requests[key] = request
		snapshot = request.Snapshot()
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Snapshot{}, err
	}

	s.emit(ctx, ledgerevents.Event{
		Action:     ledgerevents.ActionStatusRequestOpened,
		Actor:      caller,
		Airline:    airline,
		Flight:     flight,
		Timestamp:  timestamp.Unix(),
		RequestKey: key,
	})
	s.metrics.IncrementRequestOpened()

	return snapshot, nil
}

// submissionPlan is the outcome staged by SubmitResponse validation.
type submissionPlan int

const (
	planDuplicate submissionPlan = iota
	planRecord
	planResolve
)

// SubmitResponse records one oracle's answer for the request derived from
// (index, airline, flight, timestamp). The third matching response resolves
// the request; an airline-fault resolution additionally runs the payout sweep
// inside the same ledger operation. A sweep the escrow cannot cover fails the
// whole submission, leaving the response unrecorded and the request open.
func (s *Service) SubmitResponse(ctx context.Context, index uint8, airline domain.Address, flight domain.FlightNumber, timestamp time.Time, status domain.StatusCode) (models.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "oracle.SubmitResponse", trace.WithAttributes(
		attribute.Int("aircover.index", int(index)),
		attribute.String("aircover.flight", flight.String()),
		attribute.String("aircover.status", status.String()),
	))
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.Snapshot{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if !status.IsValid() {
		return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidArgument, "unknown flight status code")
	}

	now := requestcontext.Now(ctx)
	key := domain.DeriveRequestKey(index, airline, flight, timestamp)
	span.SetAttributes(attribute.String("aircover.request_key", key.String()))

	var (
		plan     submissionPlan
		sweep    *insurancemodels.SweepPlan
		snapshot models.Snapshot
	)

	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			oracle := st.Oracle(caller)
			if oracle == nil {
				return dErrors.New(dErrors.CodeNotFound, "caller is not a registered oracle")
			}
			if !oracle.HasIndex(index) {
				return dErrors.New(dErrors.CodePreconditionFailed, "index is not assigned to the caller")
			}

			request := st.Request(key)
			if request == nil {
				return dErrors.New(dErrors.CodeNotFound, "no status request exists for the derived key")
			}

			if request.HasResponded(caller) {
				plan = planDuplicate
				return nil
			}

			// Resolution fires exactly when the majority-th matching
			// response lands on an unresolved request. Later responses are
			// recorded without re-triggering it.
			if !request.Resolved && request.ResponseCount(status)+1 == models.Majority {
				plan = planResolve
				if status.IsAirlineFault() {
					swept, err := s.sweeper.PlanAirlineFault(st, request.Airline, status)
					if err != nil {
						return err
					}
					sweep = swept
				}
				return nil
			}

			plan = planRecord
			return nil
		},
		func(st *storage.State) {
			request := st.Request(key)
			switch plan {
			case planDuplicate:
				snapshot = request.Snapshot()
			case planRecord:
				request.ApplyResponse(caller, status)
				snapshot = request.Snapshot()
			case planResolve:
				request.ApplyResponse(caller, status)
				request.ApplyResolution(status, now)
				if sweep != nil {
					_, sweepSpan := tracer.Start(ctx, "oracle.payout_sweep", trace.WithAttributes(
						attribute.String("aircover.airline", request.Airline.String()),
						attribute.Int("aircover.credits", len(sweep.Credits)),
					))
					start := time.Now()
					s.sweeper.ApplyAirlineFault(st, sweep, now)
					s.metrics.ObserveSweep(time.Since(start))
					sweepSpan.End()
				}
				snapshot = request.Snapshot()
			}
		},
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Snapshot{}, err
	}

	if plan == planDuplicate {
		return snapshot, nil
	}

	s.emit(ctx, ledgerevents.Event{
		Action:     ledgerevents.ActionOracleResponseRecorded,
		Actor:      caller,
		Airline:    airline,
		Flight:     flight,
		Timestamp:  timestamp.Unix(),
		StatusCode: status,
		RequestKey: key,
	})
	s.metrics.IncrementResponse(status.String())

	if plan == planResolve {
		span.SetAttributes(attribute.Bool("aircover.resolved", true))
		s.emit(ctx, ledgerevents.Event{
			Action:     ledgerevents.ActionFlightStatusResolved,
			Actor:      caller,
			Airline:    airline,
			Flight:     flight,
			Timestamp:  timestamp.Unix(),
			StatusCode: status,
			RequestKey: key,
		})
		s.metrics.IncrementResolution(status.String())
		if sweep != nil {
			s.sweeper.RecordAirlineFault(ctx, sweep)
		}
	}

	return snapshot, nil
}

// Indexes returns the caller's assigned oracle indexes.
func (s *Service) Indexes(ctx context.Context) ([models.IndexCount]uint8, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return [models.IndexCount]uint8{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}

	var (
		indexes [models.IndexCount]uint8
		found   bool
	)
	err := s.ledger.View(ctx, func(st *storage.State) {
		if oracle := st.Oracle(caller); oracle != nil {
			indexes = oracle.Indexes
			found = true
		}
	})
	if err != nil {
		return [models.IndexCount]uint8{}, err
	}
	if !found {
		return [models.IndexCount]uint8{}, dErrors.New(dErrors.CodeNotFound, "caller is not a registered oracle")
	}
	return indexes, nil
}

// Request returns the snapshot of one status request.
func (s *Service) Request(ctx context.Context, key domain.RequestKey) (models.Snapshot, error) {
	var (
		snapshot models.Snapshot
		found    bool
	)
	err := s.ledger.View(ctx, func(st *storage.State) {
		if request := st.Request(key); request != nil {
			snapshot = request.Snapshot()
			found = true
		}
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	if !found {
		return models.Snapshot{}, dErrors.New(dErrors.CodeNotFound, "no status request exists for the key")
	}
	return snapshot, nil
}

func (s *Service) emit(ctx context.Context, event ledgerevents.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"event", string(event.Action),
			"actor", event.Actor.String(),
			"flight", event.Flight.String(),
			"request_key", event.RequestKey.String(),
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
