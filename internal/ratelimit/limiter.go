// Package ratelimit throttles upstream API calls with an in-process token
// bucket. The upstream enforces per-key quotas, so the client paces itself
// instead of burning retries on 429 responses.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter gates outgoing requests.
type Limiter interface {
	// Wait blocks until a request slot is available or ctx is done.
	Wait(ctx context.Context) error
}

// Config holds the token bucket shape.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

type limiter struct {
	bucket *rate.Limiter
}

// New builds a limiter. A non-positive rate means unlimited.
func New(cfg Config) Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return noop{}
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &limiter{bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)}
}

func (l *limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

type noop struct{}

func (noop) Wait(context.Context) error { return nil }
