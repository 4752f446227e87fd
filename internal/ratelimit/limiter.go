// Package ratelimit enforces per-route throttle policies: at most N
// attempts per decay window, counted under a configurable key strategy.
// Counters live in a pluggable store so several processes can share one
// budget.
package ratelimit

import (
	"context"
	"time"
)

// Limiter is one rate-limiting algorithm over keyed counters.
type Limiter interface {
	// Allow records one attempt under key and reports whether it fits
	// the budget.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the counter state for key.
	Reset(ctx context.Context, key string) error
}

// Result is the outcome of one attempt.
type Result struct {
	// Allowed reports whether the attempt fits the budget.
	Allowed bool

	// Limit is the attempt budget per window.
	Limit int

	// Remaining is the budget left in the current window.
	Remaining int

	// RetryAfter is how long to wait before retrying. Positive only
	// when the attempt was rejected.
	RetryAfter time.Duration
}

// NoopLimiter allows everything. Used when throttling is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

func (NoopLimiter) Reset(context.Context, string) error { return nil }
