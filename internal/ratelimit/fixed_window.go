package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/ratelimit/store"
)

// FixedWindowLimiter counts attempts in fixed time windows: the Nth+1
// attempt inside a window is rejected with the time left in the window
// as the retry delay, and a fresh window resets the count to zero.
type FixedWindowLimiter struct {
	store       store.Store
	maxAttempts int
	decay       time.Duration
	logger      *logging.Logger

	// Local counters, used when no shared store is configured.
	counters sync.Map
}

type windowCounter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// NewFixedWindowLimiter creates a fixed-window limiter. A nil store
// keeps counters in process memory.
func NewFixedWindowLimiter(s store.Store, maxAttempts int, decay time.Duration, logger *logging.Logger) *FixedWindowLimiter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FixedWindowLimiter{
		store:       s,
		maxAttempts: maxAttempts,
		decay:       decay,
		logger:      logger,
	}
}

// Allow implements Limiter.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if l.store == nil {
		return l.allowLocal(key), nil
	}
	return l.allowShared(ctx, key)
}

// windowStart truncates t to the current window boundary.
func (l *FixedWindowLimiter) windowStart(t time.Time) time.Time {
	decayNanos := l.decay.Nanoseconds()
	return time.Unix(0, (t.UnixNano()/decayNanos)*decayNanos)
}

func (l *FixedWindowLimiter) allowLocal(key string) *Result {
	now := time.Now()
	windowStart := l.windowStart(now)

	value, _ := l.counters.LoadOrStore(key, &windowCounter{windowStart: windowStart})
	counter := value.(*windowCounter)

	counter.mu.Lock()
	defer counter.mu.Unlock()

	if !counter.windowStart.Equal(windowStart) {
		counter.count = 0
		counter.windowStart = windowStart
	}

	allowed := counter.count < l.maxAttempts
	if allowed {
		counter.count++
	}

	return l.buildResult(allowed, counter.count, windowStart, now)
}

func (l *FixedWindowLimiter) allowShared(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	windowStart := l.windowStart(now)
	windowKey := fmt.Sprintf("%s:fw:%d", key, windowStart.UnixNano())

	current, err := l.store.Get(ctx, windowKey)
	if err != nil && !store.IsKeyNotFound(err) {
		return nil, err
	}

	allowed := int(current) < l.maxAttempts
	if allowed {
		// A second of slack covers clock skew between processes.
		count, err := l.store.IncrementWithExpiry(ctx, windowKey, 1, l.decay+time.Second)
		if err != nil {
			l.logger.Warn("failed to increment throttle counter", logging.Err(err))
		} else {
			current = count
		}
	}

	return l.buildResult(allowed, int(current), windowStart, now), nil
}

func (l *FixedWindowLimiter) buildResult(allowed bool, count int, windowStart, now time.Time) *Result {
	remaining := l.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = windowStart.Add(l.decay).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.maxAttempts,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}
}

// Reset implements Limiter.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	l.counters.Delete(key)
	if l.store != nil {
		windowKey := fmt.Sprintf("%s:fw:%d", key, l.windowStart(time.Now()).UnixNano())
		return l.store.Delete(ctx, windowKey)
	}
	return nil
}

// Cleanup drops local counters from elapsed windows.
func (l *FixedWindowLimiter) Cleanup() {
	current := l.windowStart(time.Now())
	l.counters.Range(func(key, value interface{}) bool {
		counter := value.(*windowCounter)
		counter.mu.Lock()
		stale := counter.windowStart.Before(current)
		counter.mu.Unlock()
		if stale {
			l.counters.Delete(key)
		}
		return true
	})
}
