package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter smooths bursts instead of hard-cutting at window
// boundaries. It is in-process only; shared budgets use the fixed
// window limiter with a store.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// NewTokenBucketLimiter creates a limiter refilling ratePerSec tokens
// per second with the given burst capacity per key.
func NewTokenBucketLimiter(ratePerSec float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(ratePerSec),
		burst:   burst,
	}
}

func (l *TokenBucketLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = bucket
	}
	return bucket
}

// Allow implements Limiter.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (*Result, error) {
	bucket := l.bucket(key)
	reservation := bucket.Reserve()
	delay := reservation.Delay()
	if delay > 0 {
		reservation.Cancel()
		return &Result{
			Allowed:    false,
			Limit:      l.burst,
			RetryAfter: delay,
		}, nil
	}

	remaining := int(bucket.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   true,
		Limit:     l.burst,
		Remaining: remaining,
	}, nil
}

// Reset implements Limiter.
func (l *TokenBucketLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys. Test helper.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
