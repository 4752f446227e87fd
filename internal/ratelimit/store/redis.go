package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var redisOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "router_throttle_redis_operations_total",
		Help: "Total throttle counter operations against redis",
	},
	[]string{"operation", "status"},
)

// incrementWithExpiryScript increments the counter and sets the expiry
// atomically when the key is created.
// KEYS[1] = key, ARGV[1] = delta, ARGV[2] = expiration seconds.
var incrementWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], ARGV[1])
	if current == tonumber(ARGV[1]) then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return current
`)

// RedisStore shares throttle counters across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
	mu     sync.Mutex
	closed bool
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns the conventional defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Address:      "localhost:6379",
		Prefix:       "router:throttle:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisStore connects to redis and verifies the connection with a
// ping before returning.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "router:throttle:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "router:throttle:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		redisOperationsTotal.WithLabelValues("get", "not_found").Inc()
		return 0, &ErrKeyNotFound{Key: key}
	}
	if err != nil {
		redisOperationsTotal.WithLabelValues("get", "error").Inc()
		return 0, fmt.Errorf("redis get error: %w", err)
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		redisOperationsTotal.WithLabelValues("get", "error").Inc()
		return 0, fmt.Errorf("failed to parse counter value: %w", err)
	}
	redisOperationsTotal.WithLabelValues("get", "success").Inc()
	return n, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value int64, expiration time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, expiration).Err(); err != nil {
		redisOperationsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("redis set error: %w", err)
	}
	redisOperationsTotal.WithLabelValues("set", "success").Inc()
	return nil
}

// IncrementWithExpiry implements Store via a Lua script so increment
// and expiry are one atomic step.
func (s *RedisStore) IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	seconds := int64(expiration.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := incrementWithExpiryScript.Run(ctx, s.client, []string{s.prefix + key}, delta, seconds).Result()
	if err != nil {
		redisOperationsTotal.WithLabelValues("increment", "error").Inc()
		return 0, fmt.Errorf("redis script error: %w", err)
	}

	val, ok := result.(int64)
	if !ok {
		redisOperationsTotal.WithLabelValues("increment", "error").Inc()
		return 0, fmt.Errorf("redis script returned unexpected type %T", result)
	}
	redisOperationsTotal.WithLabelValues("increment", "success").Inc()
	return val, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		redisOperationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("redis del error: %w", err)
	}
	redisOperationsTotal.WithLabelValues("delete", "success").Inc()
	return nil
}

// Close implements Store. Idempotent.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
