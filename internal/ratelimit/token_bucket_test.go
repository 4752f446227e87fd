package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenReject(t *testing.T) {
	t.Parallel()

	// Refill is negligible within the test window.
	limiter := NewTokenBucketLimiter(0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "burst attempt %d", i+1)
	}

	result, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
	assert.Equal(t, 2, result.Limit)
}

func TestTokenBucketKeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := NewTokenBucketLimiter(0.001, 1)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	assert.Equal(t, 2, limiter.Len())
}

func TestTokenBucketReset(t *testing.T) {
	t.Parallel()

	limiter := NewTokenBucketLimiter(0.001, 1)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)

	blocked, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	require.NoError(t, limiter.Reset(ctx, "client"))

	fresh, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
}
