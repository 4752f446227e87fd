package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottlerEnforcesPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	throttler := NewThrottler(nil, nil)
	policy := Policy{MaxAttempts: 2, Decay: time.Minute, KeyStrategy: "ip"}

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "203.0.113.5:1000"

	for i := 0; i < 2; i++ {
		result, err := throttler.Check(ctx, req, "POST:/login", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := throttler.Check(ctx, req, "POST:/login", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
}

func TestThrottlerRoutesDoNotShareBudgets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	throttler := NewThrottler(nil, nil)
	policy := Policy{MaxAttempts: 1, Decay: time.Minute}

	req := httptest.NewRequest("GET", "/a", nil)
	req.RemoteAddr = "203.0.113.6:1000"

	result, err := throttler.Check(ctx, req, "GET:/a", policy)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = throttler.Check(ctx, req, "GET:/b", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "same client, different route, fresh budget")
}

func TestThrottlerZeroPolicyAllows(t *testing.T) {
	t.Parallel()

	throttler := NewThrottler(nil, nil)
	req := httptest.NewRequest("GET", "/", nil)

	result, err := throttler.Check(context.Background(), req, "GET:/", Policy{})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestThrottlerTokenBucketPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	throttler := NewThrottler(nil, nil)
	// 2 tokens refilled over a minute: the burst drains immediately and
	// the next attempt must wait.
	policy := Policy{MaxAttempts: 2, Decay: time.Minute, KeyStrategy: "ip", Algorithm: AlgorithmTokenBucket}

	req := httptest.NewRequest("POST", "/search", nil)
	req.RemoteAddr = "203.0.113.7:1000"

	for i := 0; i < 2; i++ {
		result, err := throttler.Check(ctx, req, "POST:/search", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "burst attempt %d", i+1)
	}

	result, err := throttler.Check(ctx, req, "POST:/search", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
}

func TestThrottlerAlgorithmsKeepSeparateLimiters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	throttler := NewThrottler(nil, nil)
	fixed := Policy{MaxAttempts: 1, Decay: time.Minute}
	bucket := Policy{MaxAttempts: 1, Decay: time.Minute, Algorithm: AlgorithmTokenBucket}

	req := httptest.NewRequest("GET", "/x", nil)
	req.RemoteAddr = "203.0.113.8:1000"

	result, err := throttler.Check(ctx, req, "GET:/x", fixed)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = throttler.Check(ctx, req, "GET:/x", bucket)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "same shape, different algorithm, fresh budget")
}

func TestTokenBucketLimiter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewTokenBucketLimiter(1, 2)

	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "burst attempt %d", i+1)
	}

	result, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)

	require.NoError(t, limiter.Reset(ctx, "client"))
	assert.Zero(t, limiter.Len())
}
