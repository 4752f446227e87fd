package resolve

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores resolution results keyed by normalized path.
type ResultCache interface {
	Get(ctx context.Context, key string) (*RoutingResult, bool)
	Set(ctx context.Context, key string, result *RoutingResult)
	Clear(ctx context.Context)
}

// memoryResultCache is the in-process cache with per-entry expiry.
type memoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryResultEntry
	ttl     time.Duration
}

type memoryResultEntry struct {
	result    *RoutingResult
	expiresAt time.Time
}

// NewMemoryResultCache creates an in-process result cache. A zero ttl
// means entries never expire.
func NewMemoryResultCache(ttl time.Duration) ResultCache {
	return &memoryResultCache{
		entries: make(map[string]memoryResultEntry),
		ttl:     ttl,
	}
}

func (c *memoryResultCache) Get(_ context.Context, key string) (*RoutingResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

func (c *memoryResultCache) Set(_ context.Context, key string, result *RoutingResult) {
	entry := memoryResultEntry{result: result}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *memoryResultCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]memoryResultEntry)
	c.mu.Unlock()
}

// redisResultCache shares resolution results across processes.
type redisResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisResultCache creates a cache backed by redis. Entries are
// stored as JSON under prefix-namespaced keys.
func NewRedisResultCache(client *redis.Client, prefix string, ttl time.Duration) ResultCache {
	if prefix == "" {
		prefix = "router:resolve:"
	}
	return &redisResultCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisResultCache) Get(ctx context.Context, key string) (*RoutingResult, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var result RoutingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *redisResultCache) Set(ctx context.Context, key string, result *RoutingResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

func (c *redisResultCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
