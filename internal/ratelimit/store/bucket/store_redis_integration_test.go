//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aircover/internal/ratelimit/store/bucket"
	"aircover/pkg/testutil/containers"
)

type RedisBucketSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisStore
}

func TestRedisBucketSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketSuite))
}

func (s *RedisBucketSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = bucket.NewRedis(s.redis.Client)
}

func (s *RedisBucketSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketSuite) TestAllowWithinLimit() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := s.store.Allow(ctx, "ratelimit:ip:10.0.0.1:mutation", 5, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(5-i-1, result.Remaining)
	}
}

func (s *RedisBucketSuite) TestDeniesOverLimit() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.store.Allow(ctx, "key", 3, time.Minute)
		s.Require().NoError(err)
	}

	result, err := s.store.Allow(ctx, "key", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Zero(result.Remaining)
	s.GreaterOrEqual(result.RetryAfter, 1)
}

func (s *RedisBucketSuite) TestWindowSlides() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "key", 1, 200*time.Millisecond)
	s.Require().NoError(err)

	denied, err := s.store.Allow(ctx, "key", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(denied.Allowed)

	time.Sleep(250 * time.Millisecond)

	allowed, err := s.store.Allow(ctx, "key", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(allowed.Allowed)
}

func (s *RedisBucketSuite) TestKeysAreIndependent() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "first", 1, time.Minute)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, "second", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketSuite) TestReset() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "key", 1, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, "key"))

	result, err := s.store.Allow(ctx, "key", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketSuite) TestBucketKeysExpire() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "key", 5, 100*time.Millisecond)
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(ctx, "key").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0), "bucket keys must carry a TTL so idle buckets vanish")
}
