package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
)

const (
	defaultRateLimit  = 5
	defaultRateWindow = 15 * time.Minute
)

// RateLimiter is a fixed-window counter per route and client.
type RateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

// NewRateLimiter builds a limiter. A nil client allows everything.
func NewRateLimiter(rdb redis.Cmdable, cfg config.RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}
	return &RateLimiter{rdb: rdb, limit: cfg.Limit, window: cfg.Window}
}

func RateLimitKey(path, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", path, clientIP)
}

// Allow counts one request for path and clientIP and reports whether it is
// within the limit. Callers should allow the request when err is not nil.
func (l *RateLimiter) Allow(ctx context.Context, path, clientIP string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	key := RateLimitKey(path, clientIP)
	pipe := l.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return true, fmt.Errorf("rate limit check: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

// Reset clears the counter for path and clientIP.
func (l *RateLimiter) Reset(ctx context.Context, path, clientIP string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, RateLimitKey(path, clientIP)).Err()
}
