package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter implements a fixed-window counter backed by Redis.
// Key format: ratelimit:<client_key>
type AttemptLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewAttemptLimiter creates a limiter allowing limit attempts per window.
func NewAttemptLimiter(client *redis.Client, limit int, window time.Duration) *AttemptLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &AttemptLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts an attempt for key and reports whether it is inside the
// window's budget. The window starts at the first attempt and expires with
// the key's TTL.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= l.limit, nil
}

func (l *AttemptLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
