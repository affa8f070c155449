// Package ratelimit implements a fixed-window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskgram/service/internal/metrics"
	"github.com/taskgram/service/internal/middleware"
	"github.com/taskgram/service/internal/response"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps counters in Redis. A counter with no expiry starts a
// new window; later hits leave the expiry alone.
type RedisCounter struct {
	rdb redis.Cmdable
}

// NewRedisCounter returns a Counter using rdb.
func NewRedisCounter(rdb redis.Cmdable) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr implements Counter.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate counter %q: %w", key, err)
	}
	// -1 means the key exists without expiry: first hit, or a lost EXPIRE.
	if ttl.Val() < 0 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("rate counter %q: set expiry: %w", key, err)
		}
	}
	return incr.Val(), nil
}

// Limiter allows at most limit hits per key per window.
type Limiter struct {
	counter Counter
	name    string
	limit   int64
	window  time.Duration
}

// New returns a Limiter. name namespaces its keys.
func New(counter Counter, name string, limit int64, window time.Duration) *Limiter {
	return &Limiter{counter: counter, name: name, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	n, err := l.counter.Incr(ctx, "rl:"+l.name+":"+key, l.window)
	if err != nil {
		return false, 0, err
	}
	return n <= l.limit, n, nil
}

// PerUser limits requests by the authenticated user ID. It must run after
// the auth middleware. Counter failures let the request through.
func (l *Limiter) PerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}

		allowed, n, err := l.Allow(r.Context(), userID)
		if err != nil {
			log.Printf("ratelimit: %s: %v (allowing request)", l.name, err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.TooManyRequests(w, fmt.Sprintf("rate limit exceeded (count=%d, limit=%d)", n, l.limit))
			return
		}
		next.ServeHTTP(w, r)
	})
}
