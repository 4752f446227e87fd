package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodhe/router/internal/router"
)

func TestMemoryResultCacheTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemoryResultCache(30 * time.Millisecond)

	cache.Set(ctx, "/users", &RoutingResult{Controller: "users", Method: "index"})

	got, ok := cache.Get(ctx, "/users")
	require.True(t, ok)
	assert.Equal(t, "users", got.Controller)

	time.Sleep(60 * time.Millisecond)
	_, ok = cache.Get(ctx, "/users")
	assert.False(t, ok, "entries expire after the ttl")
}

func TestMemoryResultCacheClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewMemoryResultCache(0)
	cache.Set(ctx, "/a", &RoutingResult{Controller: "a"})
	cache.Clear(ctx)

	_, ok := cache.Get(ctx, "/a")
	assert.False(t, ok)
}

func TestRedisResultCache(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	cache := NewRedisResultCache(client, "test:resolve:", time.Minute)

	result := &RoutingResult{
		Strategy:    StrategyModern,
		Controller:  "UserController",
		Method:      "show",
		Params:      []string{"42"},
		MethodValid: true,
		Path:        "/users/42",
	}
	cache.Set(ctx, "/users/42", result)

	got, ok := cache.Get(ctx, "/users/42")
	require.True(t, ok)
	assert.Equal(t, result.Controller, got.Controller)
	assert.Equal(t, result.Params, got.Params)
	assert.True(t, got.MethodValid)

	cache.Clear(ctx)
	_, ok = cache.Get(ctx, "/users/42")
	assert.False(t, ok)
}

func TestRedisResultCacheKeepsMiddlewareAndRateLimit(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	cache := NewRedisResultCache(client, "test:resolve:", time.Minute)

	result := &RoutingResult{
		Strategy:    StrategyModern,
		Controller:  "AuthController",
		Method:      "login",
		Middleware:  []string{"auth", "csrf"},
		RouteID:     "POST:/login",
		RateLimit:   &router.RateLimitPolicy{MaxAttempts: 5, Decay: time.Minute, KeyStrategy: "ip"},
		MethodValid: true,
		Path:        "/login",
	}
	cache.Set(ctx, "/login", result)

	got, ok := cache.Get(ctx, "/login")
	require.True(t, ok)
	assert.Equal(t, []string{"auth", "csrf"}, got.Middleware)
	assert.Equal(t, "POST:/login", got.RouteID)
	require.NotNil(t, got.RateLimit, "throttle policy survives the round trip")
	assert.Equal(t, 5, got.RateLimit.MaxAttempts)
	assert.Equal(t, time.Minute, got.RateLimit.Decay)
	assert.Equal(t, "ip", got.RateLimit.KeyStrategy)
}

func TestRedisResultCacheMissOnBadPayload(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, srv.Set("test:resolve:/broken", "not json"))

	cache := NewRedisResultCache(client, "test:resolve:", time.Minute)
	_, ok := cache.Get(context.Background(), "/broken")
	assert.False(t, ok)
}
