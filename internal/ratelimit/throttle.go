package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/ratelimit/store"
)

// Algorithm names a limiter implementation selectable per policy.
const (
	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

// Policy is a per-route throttle declaration. An empty Algorithm
// selects the fixed-window limiter.
type Policy struct {
	MaxAttempts int
	Decay       time.Duration
	KeyStrategy string
	Algorithm   string
}

// Throttler maps throttle policies to limiters. Each distinct policy
// gets one limiter; route identity is folded into the counter key so
// routes never share budgets by accident.
type Throttler struct {
	mu       sync.Mutex
	limiters map[string]Limiter
	store    store.Store
	logger   *logging.Logger
}

// NewThrottler creates a throttler. A nil store keeps counters local to
// the process.
func NewThrottler(s store.Store, logger *logging.Logger) *Throttler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Throttler{
		limiters: make(map[string]Limiter),
		store:    s,
		logger:   logger,
	}
}

// Check records one attempt for a route under its policy.
func (t *Throttler) Check(ctx context.Context, r *http.Request, routeID string, policy Policy) (*Result, error) {
	if policy.MaxAttempts <= 0 || policy.Decay <= 0 {
		return &Result{Allowed: true}, nil
	}

	limiter := t.limiterFor(policy)
	key := RouteKeyFunc(routeID, ParseStrategy(policy.KeyStrategy))(r)
	return limiter.Allow(ctx, key)
}

func (t *Throttler) limiterFor(policy Policy) Limiter {
	id := policy.Algorithm + "/" + strconv.Itoa(policy.MaxAttempts) + "/" + policy.Decay.String()

	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, ok := t.limiters[id]
	if !ok {
		switch policy.Algorithm {
		case AlgorithmTokenBucket:
			// In-process smoothing: the full budget is the burst and
			// tokens refill evenly across the decay window.
			limiter = NewTokenBucketLimiter(float64(policy.MaxAttempts)/policy.Decay.Seconds(), policy.MaxAttempts)
		default:
			limiter = NewFixedWindowLimiter(t.store, policy.MaxAttempts, policy.Decay, t.logger)
		}
		t.limiters[id] = limiter
	}
	return limiter
}
