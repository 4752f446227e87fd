package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodhe/router/internal/ratelimit/store"
)

func TestFixedWindowFourthAttemptRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewFixedWindowLimiter(nil, 3, time.Minute, nil)

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "attempt %d", i+1)
	}

	result, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
	assert.Zero(t, result.Remaining)
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewFixedWindowLimiter(nil, 2, 50*time.Millisecond, nil)

	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(ctx, "client-b")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
	result, err := limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(60 * time.Millisecond)

	result, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "a fresh window resets the count")
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewFixedWindowLimiter(nil, 1, time.Minute, nil)

	result, err := limiter.Allow(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "key-2")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "budgets are per key")
}

func TestFixedWindowSharedStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	// Two limiter instances over the same store share one budget.
	a := NewFixedWindowLimiter(s, 2, time.Minute, nil)
	b := NewFixedWindowLimiter(s, 2, time.Minute, nil)

	result, err := a.Allow(ctx, "shared")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = b.Allow(ctx, "shared")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = a.Allow(ctx, "shared")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestFixedWindowReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewFixedWindowLimiter(nil, 1, time.Minute, nil)

	result, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	require.NoError(t, limiter.Reset(ctx, "key"))

	result, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
