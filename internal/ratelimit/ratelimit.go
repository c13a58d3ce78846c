// Package ratelimit provides per-provider request rate limiting.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter applies a token-bucket rate limit per provider name.
// Wait blocks until a slot is available or the context is cancelled;
// the gateway never rejects locally except on cancellation.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
	burst    int
}

// New creates a limiter allowing rpm requests per minute per provider
// with the given burst. Non-positive values fall back to 600 rpm / 20 burst.
func New(rpm, burst int) *Limiter {
	if rpm <= 0 {
		rpm = 600
	}
	if burst <= 0 {
		burst = 20
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rpm:      rpm,
		burst:    burst,
	}
}

func (l *Limiter) limiterFor(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[provider]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.burst)
		l.limiters[provider] = lim
	}
	return lim
}

// Wait blocks until the provider's limiter admits one request.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	return l.limiterFor(provider).Wait(ctx)
}

// Allow reports whether one request would be admitted right now.
func (l *Limiter) Allow(provider string) bool {
	return l.limiterFor(provider).Allow()
}
