// Package idempotency holds the duplicate-submission guard consulted before
// a hook charges a card.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard reserves an invocation id for the duration of a charge.
type Guard interface {
	// Acquire returns ok=false when the id is already held. attempt counts
	// the earlier reservations of the id that were released.
	Acquire(ctx context.Context, requestID string) (attempt int64, ok bool, err error)
	// Release frees the id so the same request can be submitted again.
	Release(ctx context.Context, requestID string) error
}

const (
	// KeyPrefix namespaces guard keys in Redis.
	KeyPrefix = "hook:charge:"
	// AttemptKeyPrefix namespaces the released-attempt counters.
	AttemptKeyPrefix = "hook:charge:attempt:"
	// AttemptTTL matches how long Stripe remembers an idempotency key.
	AttemptTTL = 24 * time.Hour
)

// RedisGuard holds ids with SET NX and a TTL. A successful charge leaves the
// key to expire; a failed one releases it and bumps the attempt counter.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, requestID string) (int64, bool, error) {
	ok, err := g.client.SetNX(ctx, Key(requestID), "1", g.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("guard acquire %s: %w", requestID, err)
	}
	if !ok {
		return 0, false, nil
	}

	attempt, err := g.client.Get(ctx, AttemptKey(requestID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		_ = g.client.Del(context.WithoutCancel(ctx), Key(requestID)).Err()
		return 0, false, fmt.Errorf("guard attempt %s: %w", requestID, err)
	}
	return attempt, true, nil
}

func (g *RedisGuard) Release(ctx context.Context, requestID string) error {
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, AttemptKey(requestID))
		pipe.Expire(ctx, AttemptKey(requestID), AttemptTTL)
		pipe.Del(ctx, Key(requestID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("guard release %s: %w", requestID, err)
	}
	return nil
}

// Key returns the Redis key for requestID.
func Key(requestID string) string {
	return KeyPrefix + requestID
}

func AttemptKey(requestID string) string {
	return AttemptKeyPrefix + requestID
}

// NoopGuard never blocks. Used when the guard is disabled.
type NoopGuard struct{}

func (NoopGuard) Acquire(context.Context, string) (int64, bool, error) { return 0, true, nil }

func (NoopGuard) Release(context.Context, string) error { return nil }
