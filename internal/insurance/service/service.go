// Package service implements the escrow ledger: insurance purchases, the
// airline-fault payout sweep, and passenger withdrawals. Escrow and
// passenger balances only move inside the shared ledger's Execute callbacks,
// which is what keeps the conservation property: every escrow debit is
// matched by passenger credits staged in the same plan.
package service

import (
	"context"
	"log/slog"
	"time"

	"aircover/internal/insurance/metrics"
	"aircover/internal/insurance/models"
	"aircover/internal/storage"
	"aircover/pkg/domain"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/platform/ledgerevents"
	"aircover/pkg/requestcontext"
)

// Ledger is the serialized state store the escrow ledger operates on.
type Ledger interface {
	Execute(ctx context.Context, validate func(*storage.State) error, apply func(*storage.State)) error
	View(ctx context.Context, fn func(*storage.State)) error
}

// EventPublisher receives post-commit ledger events.
type EventPublisher interface {
	Emit(ctx context.Context, event ledgerevents.Event) error
}

// Service orchestrates policy purchases, payouts, and withdrawals.
type Service struct {
	ledger     Ledger
	maxPremium domain.Units
	logger     *slog.Logger
	events     EventPublisher
	metrics    *metrics.Metrics
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

// WithMetrics sets the escrow metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the shared ledger. maxPremium caps the
// chargeable premium per policy; payment beyond it is returned as change.
func New(ledger Ledger, maxPremium domain.Units, opts ...Option) *Service {
	s := &Service{ledger: ledger, maxPremium: maxPremium}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buy purchases insurance against the airline for the calling passenger.
// The chargeable premium is capped at the configured maximum; the cap
// overflow comes back as change due. Returns the created policy and change.
func (s *Service) Buy(ctx context.Context, airline domain.Address) (models.Policy, domain.Units, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.Policy{}, 0, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if airline.IsZero() {
		return models.Policy{}, 0, dErrors.New(dErrors.CodeInvalidArgument, "airline address must not be zero")
	}

	payment := requestcontext.Payment(ctx)
	if payment == 0 {
		return models.Policy{}, 0, dErrors.New(dErrors.CodeInvalidArgument, "insurance requires an attached payment")
	}

	now := requestcontext.Now(ctx)
	key := models.PolicyKey{Airline: airline, Passenger: caller}

	chargeable := payment.Min(s.maxPremium)
	change := payment - chargeable

	var purchased models.Policy
	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			a := st.Airline(airline)
			if a == nil || !a.Eligible() {
				return dErrors.New(dErrors.CodePermissionDenied, "airline is not eligible for insurance")
			}
			if st.Policy(key) != nil {
				return dErrors.New(dErrors.CodeAlreadyExists, "a policy already exists for this airline and passenger")
			}
			return nil
		},
		func(st *storage.State) {
			a := st.Airline(airline)
			a.EscrowBalance += chargeable
			a.Passengers = append(a.Passengers, caller)

			policy := models.NewPolicy(airline, caller, chargeable, now)
			st.Policies[key] = policy
			purchased = *policy
		},
	)
	if err != nil {
		return models.Policy{}, 0, err
	}

	s.emit(ctx, ledgerevents.Event{
		Action:  ledgerevents.ActionPolicyPurchased,
		Actor:   caller,
		Airline: airline,
		Amount:  chargeable,
	})
	s.metrics.IncrementPolicyPurchased(float64(chargeable))

	return purchased, change, nil
}

// Withdraw debits the caller's withdrawable balance and reports the amount
// paid out. The debit happens before any external payment effect so a
// re-entrant payment rail can never double-spend.
func (s *Service) Withdraw(ctx context.Context, amount domain.Units) (domain.Units, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidArgument, "withdrawal amount must be positive")
	}

	err := s.ledger.Execute(ctx,
		func(st *storage.State) error {
			if amount > st.PassengerBalances[caller] {
				return dErrors.New(dErrors.CodePreconditionFailed, "withdrawal exceeds the available balance")
			}
			return nil
		},
		func(st *storage.State) {
			st.PassengerBalances[caller] -= amount
		},
	)
	if err != nil {
		return 0, err
	}

	s.emit(ctx, ledgerevents.Event{
		Action: ledgerevents.ActionFundsWithdrawn,
		Actor:  caller,
		Amount: amount,
	})
	s.metrics.IncrementWithdrawal(float64(amount))

	return amount, nil
}

// Balance returns the caller's withdrawable balance.
func (s *Service) Balance(ctx context.Context) (domain.Units, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}

	var balance domain.Units
	err := s.ledger.View(ctx, func(st *storage.State) {
		balance = st.PassengerBalances[caller]
	})
	return balance, err
}

// PolicyFor returns the caller's policy against the airline.
func (s *Service) PolicyFor(ctx context.Context, airline domain.Address) (models.Policy, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return models.Policy{}, dErrors.New(dErrors.CodeUnauthenticated, "caller identity required")
	}
	if airline.IsZero() {
		return models.Policy{}, dErrors.New(dErrors.CodeInvalidArgument, "airline address must not be zero")
	}

	var (
		policy models.Policy
		found  bool
	)
	err := s.ledger.View(ctx, func(st *storage.State) {
		if p := st.Policy(models.PolicyKey{Airline: airline, Passenger: caller}); p != nil {
			policy = *p
			found = true
		}
	})
	if err != nil {
		return models.Policy{}, err
	}
	if !found {
		return models.Policy{}, dErrors.New(dErrors.CodeNotFound, "no policy exists for this airline and passenger")
	}
	return policy, nil
}

// Treasury returns the protocol treasury balance.
func (s *Service) Treasury(ctx context.Context) (domain.Units, error) {
	var balance domain.Units
	err := s.ledger.View(ctx, func(st *storage.State) {
		balance = st.Treasury
	})
	return balance, err
}

// PlanAirlineFault stages the payout sweep for an airline-fault resolution.
// It runs inside the resolving operation's validation phase and must not
// mutate state: it walks the airline's passengers in purchase order, stages
// a credit of premium times 3/2 for every unsettled policy, and fails the
// whole plan when the escrow cannot cover the total. A plan with no payable
// policies is returned empty rather than as an error.
func (s *Service) PlanAirlineFault(st *storage.State, airline domain.Address, status domain.StatusCode) (*models.SweepPlan, error) {
	plan := &models.SweepPlan{Airline: airline, Status: status}

	a := st.Airline(airline)
	if a == nil {
		return plan, nil
	}

	for _, passenger := range a.Passengers {
		policy := st.Policy(models.PolicyKey{Airline: airline, Passenger: passenger})
		if !policy.Active() {
			continue
		}
		payout := policy.Payout()
		plan.Credits = append(plan.Credits, models.PayoutCredit{Passenger: passenger, Amount: payout})
		plan.Total += payout
	}

	if plan.Empty() {
		return plan, nil
	}
	if a.EscrowBalance <= plan.Total {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "airline escrow cannot cover the payout sweep")
	}
	return plan, nil
}

// ApplyAirlineFault executes a staged sweep plan: one escrow debit, matching
// passenger credits, and settlement marks that keep a second resolution for
// the same flight from paying twice.
func (s *Service) ApplyAirlineFault(st *storage.State, plan *models.SweepPlan, now time.Time) {
	if plan.Empty() {
		return
	}

	st.Airline(plan.Airline).EscrowBalance -= plan.Total
	for _, credit := range plan.Credits {
		st.PassengerBalances[credit.Passenger] += credit.Amount
		st.Policy(models.PolicyKey{Airline: plan.Airline, Passenger: credit.Passenger}).ApplySettlement(now)
	}
}

// RecordAirlineFault emits the post-commit events and metrics for an applied
// sweep plan.
func (s *Service) RecordAirlineFault(ctx context.Context, plan *models.SweepPlan) {
	for _, credit := range plan.Credits {
		s.emit(ctx, ledgerevents.Event{
			Action:     ledgerevents.ActionPayoutCredited,
			Actor:      credit.Passenger,
			Airline:    plan.Airline,
			Amount:     credit.Amount,
			StatusCode: plan.Status,
		})
		s.metrics.IncrementPayout(float64(credit.Amount))
	}
}

func (s *Service) emit(ctx context.Context, event ledgerevents.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"event", string(event.Action),
			"airline", event.Airline.String(),
			"actor", event.Actor.String(),
			"amount", event.Amount.String(),
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
