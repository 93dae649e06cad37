package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindowStore shares fixed-window counters across replicas. Each bucket
// is a Redis counter that expires when its window ends.
type RedisWindowStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisWindowStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisWindowStore(client redis.UniversalClient, prefix string) *RedisWindowStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisWindowStore{client: client, prefix: prefix}
}

// Hit increments the bucket and arms its expiry in one round trip. Rejected
// requests still increment the counter; the decision only compares against
// max, so overshoot has no effect.
func (s *RedisWindowStore) Hit(ctx context.Context, key string, max int, resetAt, _ time.Time) (int, bool, error) {
	k := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.PExpireAt(ctx, k, resetAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, fmt.Errorf("httpx: redis window hit: %w", err)
	}

	n := int(incr.Val())
	if n > max {
		return max, false, nil
	}
	return n, true, nil
}
