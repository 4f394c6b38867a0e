// Package ratelimit implements fixed-window request counters in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned by Hit once the window's budget is spent.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter counts hits per key inside a fixed window.
type Limiter struct {
	redis  redis.Cmdable
	prefix string
	limit  int
	window time.Duration
}

// New returns a limiter allowing limit hits per key per window. A limit of
// zero or less disables limiting.
func New(client redis.Cmdable, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{redis: client, prefix: prefix, limit: limit, window: window}
}

// Hit records one hit for key and returns ErrLimited when the window budget
// is exceeded. Redis failures are returned wrapped and are distinct from
// ErrLimited.
func (l *Limiter) Hit(ctx context.Context, key string) error {
	if l == nil || l.limit <= 0 {
		return nil
	}

	k := l.key(key)
	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("incr %s: %w", l.prefix, err)
	}

	// The TTL is set by the first hit only, which makes the window fixed.
	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("expire %s: %w", l.prefix, err)
		}
	}

	if count > int64(l.limit) {
		return ErrLimited
	}
	return nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("reset %s: %w", l.prefix, err)
	}
	return nil
}

// Remaining reports how many hits key has left in the current window.
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(key)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return l.limit, nil
		}
		return 0, fmt.Errorf("get %s: %w", l.prefix, err)
	}
	return max(l.limit-count, 0), nil
}

// key lower-cases the identifier so "Alice@x.io" and "alice@x.io" share a
// budget.
func (l *Limiter) key(id string) string {
	return l.prefix + ":" + strings.ToLower(strings.TrimSpace(id))
}
