// Package bucket implements sliding-window request counting. The memory
// store serves single-instance deployments; the Redis store shares
// windows across instances, and the fallback store degrades from Redis
// to memory behind a circuit breaker.
package bucket

import (
	"context"
	"time"

	"aircover/internal/ratelimit/models"
)

// Store counts requests against sliding windows.
//
// Error Contract:
//   - Allow returns a result for every reachable store state
//   - Errors are infrastructure failures only; callers decide whether to
//     fail open or degrade to another store
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}
