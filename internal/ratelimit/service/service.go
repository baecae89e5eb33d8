// Package service decides whether a request fits its rate budget. Limits
// are classed by endpoint kind and enforced per client IP and, for
// authenticated traffic, per participant address.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aircover/internal/ratelimit/metrics"
	"aircover/internal/ratelimit/models"
	"aircover/internal/ratelimit/store/bucket"
	dErrors "aircover/pkg/domain-errors"
	"aircover/pkg/requestcontext"
)

// Limit is one budget: this many requests per window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// ClassLimits carries the IP and participant budgets for one endpoint
// class. Participant budgets are usually tighter: an address is a single
// actor, an IP may front many.
type ClassLimits struct {
	IP          Limit
	Participant Limit
}

// Limits maps endpoint classes to their budgets. A class with no entry
// is denied outright rather than silently unlimited.
type Limits map[models.EndpointClass]ClassLimits

// DefaultLimits returns the standing budgets.
func DefaultLimits() Limits {
	return Limits{
		models.ClassAuth: {
			IP:          Limit{Requests: 10, Window: time.Minute},
			Participant: Limit{Requests: 10, Window: time.Minute},
		},
		models.ClassMutation: {
			IP:          Limit{Requests: 60, Window: time.Minute},
			Participant: Limit{Requests: 30, Window: time.Minute},
		},
		models.ClassRead: {
			IP:          Limit{Requests: 300, Window: time.Minute},
			Participant: Limit{Requests: 120, Window: time.Minute},
		},
	}
}

// Service checks budgets against a bucket store.
type Service struct {
	buckets bucket.Store
	limits  Limits
	logger  *slog.Logger
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

// WithLimits replaces the default budgets.
func WithLimits(limits Limits) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

// WithMetrics sets the rate limit metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the given bucket store.
func New(buckets bucket.Store, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}
	s := &Service{
		buckets: buckets,
		limits:  DefaultLimits(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckIP enforces the per-IP budget for the class.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	classLimits, ok := s.limits[class]
	if !ok {
		return s.denyUnconfigured(ctx, class, string(models.KeyPrefixIP)), nil
	}
	return s.check(ctx, models.NewRateLimitKey(models.KeyPrefixIP, ip, class), class, classLimits.IP, ip)
}

// CheckParticipant enforces the per-address budget for the class.
func (s *Service) CheckParticipant(ctx context.Context, address string, class models.EndpointClass) (*models.RateLimitResult, error) {
	classLimits, ok := s.limits[class]
	if !ok {
		return s.denyUnconfigured(ctx, class, string(models.KeyPrefixParticipant)), nil
	}
	return s.check(ctx, models.NewRateLimitKey(models.KeyPrefixParticipant, address, class), class, classLimits.Participant, address)
}

// CheckBoth enforces the IP budget first, then the participant budget.
// Only a fully allowed request consumes the participant slot; a request
// the IP budget already rejected must not burn address budget too.
func (s *Service) CheckBoth(ctx context.Context, ip, address string, class models.EndpointClass) (*models.RateLimitResult, error) {
	ipResult, err := s.CheckIP(ctx, ip, class)
	if err != nil {
		return nil, err
	}
	if !ipResult.Allowed {
		return ipResult, nil
	}

	participantResult, err := s.CheckParticipant(ctx, address, class)
	if err != nil {
		return nil, err
	}
	if !participantResult.Allowed {
		return participantResult, nil
	}

	return moreRestrictive(ipResult, participantResult), nil
}

func (s *Service) check(ctx context.Context, key models.RateLimitKey, class models.EndpointClass, limit Limit, identifier string) (*models.RateLimitResult, error) {
	result, err := s.buckets.Allow(ctx, key.String(), limit.Requests, limit.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check rate limit")
	}

	s.metrics.IncrementCheck(class.String(), result.Allowed)
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"identifier", identifier,
			"endpoint_class", class,
			"limit", limit.Requests,
			"window_seconds", int(limit.Window.Seconds()),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return result, nil
}

// denyUnconfigured is the default-deny path: a class nobody budgeted is
// refused, loudly, instead of passing unlimited traffic.
func (s *Service) denyUnconfigured(ctx context.Context, class models.EndpointClass, scope string) *models.RateLimitResult {
	s.logger.ErrorContext(ctx, "rate limit class has no configured budget",
		"endpoint_class", class,
		"scope", scope,
	)
	s.metrics.IncrementCheck(class.String(), false)
	return &models.RateLimitResult{
		Allowed:    false,
		ResetAt:    requestcontext.Now(ctx),
		RetryAfter: 60,
	}
}

// moreRestrictive returns the result with fewer remaining requests, or
// the earlier reset when equal.
func moreRestrictive(a, b *models.RateLimitResult) *models.RateLimitResult {
	if a.Remaining < b.Remaining {
		return a
	}
	if b.Remaining < a.Remaining {
		return b
	}
	if a.ResetAt.Before(b.ResetAt) {
		return a
	}
	return b
}
