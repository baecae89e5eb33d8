package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircover/internal/ratelimit/models"
	"aircover/internal/ratelimit/store/bucket"
)

func newService(t *testing.T, limits Limits) *Service {
	t.Helper()

	svc, err := New(bucket.NewInMemory(),
		WithLimits(limits),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return svc
}

func tightLimits() Limits {
	return Limits{
		models.ClassMutation: {
			IP:          Limit{Requests: 3, Window: time.Minute},
			Participant: Limit{Requests: 2, Window: time.Minute},
		},
		models.ClassRead: {
			IP:          Limit{Requests: 5, Window: time.Minute},
			Participant: Limit{Requests: 5, Window: time.Minute},
		},
	}
}

func TestNewRequiresBucketStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestCheckIPEnforcesTheBudget(t *testing.T) {
	svc := newService(t, tightLimits())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := svc.CheckIP(ctx, "10.0.0.1", models.ClassMutation)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := svc.CheckIP(ctx, "10.0.0.1", models.ClassMutation)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.GreaterOrEqual(t, result.RetryAfter, 1)

	other, err := svc.CheckIP(ctx, "10.0.0.2", models.ClassMutation)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "budgets are per IP")
}

func TestClassesHaveSeparateBudgets(t *testing.T) {
	svc := newService(t, tightLimits())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CheckIP(ctx, "10.0.0.1", models.ClassMutation)
		require.NoError(t, err)
	}

	result, err := svc.CheckIP(ctx, "10.0.0.1", models.ClassRead)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "exhausting mutations must not throttle reads")
}

func TestUnconfiguredClassIsDenied(t *testing.T) {
	svc := newService(t, tightLimits())

	result, err := svc.CheckIP(context.Background(), "10.0.0.1", models.ClassAuth)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 60, result.RetryAfter)
}

func TestCheckBothStopsAtTheTighterBudget(t *testing.T) {
	svc := newService(t, Limits{
		models.ClassMutation: {
			IP:          Limit{Requests: 5, Window: time.Minute},
			Participant: Limit{Requests: 2, Window: time.Minute},
		},
	})
	ctx := context.Background()

	// The participant budget (2) is tighter than the IP budget (5).
	for i := 0; i < 2; i++ {
		result, err := svc.CheckBoth(ctx, "10.0.0.1", "0xabc", models.ClassMutation)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := svc.CheckBoth(ctx, "10.0.0.1", "0xabc", models.ClassMutation)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// The same IP fronting another participant still has IP budget left.
	other, err := svc.CheckBoth(ctx, "10.0.0.1", "0xdef", models.ClassMutation)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestCheckBothRejectedIPDoesNotBurnParticipantBudget(t *testing.T) {
	svc := newService(t, Limits{
		models.ClassMutation: {
			IP:          Limit{Requests: 1, Window: time.Minute},
			Participant: Limit{Requests: 2, Window: time.Minute},
		},
	})
	ctx := context.Background()

	_, err := svc.CheckBoth(ctx, "10.0.0.1", "0xabc", models.ClassMutation)
	require.NoError(t, err)

	denied, err := svc.CheckBoth(ctx, "10.0.0.1", "0xabc", models.ClassMutation)
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	// The denial above must not have consumed a participant slot: the
	// address has exactly one of its two left.
	result, err := svc.CheckBoth(ctx, "10.0.0.2", "0xabc", models.ClassMutation)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	exhausted, err := svc.CheckBoth(ctx, "10.0.0.3", "0xabc", models.ClassMutation)
	require.NoError(t, err)
	assert.False(t, exhausted.Allowed)
}

func TestDefaultLimitsCoverEveryClass(t *testing.T) {
	limits := DefaultLimits()
	for _, class := range []models.EndpointClass{models.ClassAuth, models.ClassMutation, models.ClassRead} {
		classLimits, ok := limits[class]
		require.True(t, ok, class)
		assert.Positive(t, classLimits.IP.Requests)
		assert.Positive(t, classLimits.Participant.Requests)
	}
}
