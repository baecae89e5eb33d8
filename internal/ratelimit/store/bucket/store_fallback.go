package bucket

import (
	"context"
	"log/slog"
	"time"

	"aircover/internal/ratelimit/metrics"
	"aircover/internal/ratelimit/models"
	"aircover/pkg/platform/circuit"
)

// FallbackStore serves from a primary store (Redis) and degrades to a
// secondary (memory) when the primary's circuit breaker opens. While
// open, every request still probes the primary so the breaker can close
// itself once Redis recovers.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// FallbackOption configures a FallbackStore.
type FallbackOption func(*FallbackStore)

// WithMetrics counts breaker transitions.
func WithMetrics(m *metrics.Metrics) FallbackOption {
	return func(s *FallbackStore) {
		s.metrics = m
	}
}

// NewFallback wraps primary with fallback behind a circuit breaker.
func NewFallback(primary, fallback Store, logger *slog.Logger, opts ...FallbackOption) *FallbackStore {
	s := &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("ratelimit-bucket"),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := s.primary.Allow(ctx, key, limit, window)
	if err == nil {
		usePrimary, change := s.breaker.RecordSuccess()
		if change.Closed {
			s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
		}
		if usePrimary {
			return result, nil
		}
		// The probe succeeded but the breaker wants more evidence before
		// closing. Limits keep being served from memory until it does.
		return s.fallback.Allow(ctx, key, limit, window)
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.ErrorContext(ctx, "rate limit store failing, degrading to in-memory windows",
			"breaker", s.breaker.Name(),
			"error", err,
		)
		s.metrics.IncrementStoreDegradation()
	}
	if !useFallback {
		return nil, err
	}
	return s.fallback.Allow(ctx, key, limit, window)
}

func (s *FallbackStore) Reset(ctx context.Context, key string) error {
	if err := s.fallback.Reset(ctx, key); err != nil {
		return err
	}
	return s.primary.Reset(ctx, key)
}
