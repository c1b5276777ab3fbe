// Package ratelimit paces outbound calls with token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps an independent token bucket per key, typically one
// per remote host.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed limiter allowing rps requests per second per key with
// the given burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a call for key may proceed now, consuming a token if so.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.limiter(key).Allow()
}

// Wait blocks until a call for key may proceed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.limiter(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	l, ok := krl.limiters[key]
	if !ok {
		l = rate.NewLimiter(krl.limit, krl.burst)
		krl.limiters[key] = l
	}
	return l
}

// Throttle enforces a minimum spacing between consecutive calls.
type Throttle struct {
	l *rate.Limiter
}

// NewThrottle returns a throttle admitting one call per interval. A zero
// interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{l: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{l: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is admitted.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.l.Wait(ctx)
}
