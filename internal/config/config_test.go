package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
environment: production
basePath: /app
server:
  address: ":9000"
  shutdownTimeout: 15s
modern:
  enabled: true
  cacheEnabled: true
  cacheFile: cache/routes.cache
legacy:
  enabled: true
  first: true
  appControllerDir: app/controllers
  moduleRoots: [modules]
  translateDashes: true
resolver:
  resultCacheEnabled: true
  resultCacheTTL: 5m
  controllerSuffix: Controller
rateLimit:
  enabled: true
  store: redis
  redis:
    address: "redis:6379"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/app", cfg.BasePath)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.True(t, cfg.Legacy.First)
	assert.Equal(t, []string{"modules"}, cfg.Legacy.ModuleRoots)
	assert.Equal(t, 5*time.Minute, cfg.Resolver.ResultCacheTTL.Duration())
	assert.Equal(t, "redis:6379", cfg.RateLimit.Redis.Address)

	// Untouched keys keep their defaults.
	assert.Equal(t, "home", cfg.Legacy.DefaultController)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "modern: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "both engines disabled",
			mutate: func(c *Config) {
				c.Modern.Enabled = false
				c.Legacy.Enabled = false
			},
			wantErr: "at least one",
		},
		{
			name:    "base path without leading slash",
			mutate:  func(c *Config) { c.BasePath = "app" },
			wantErr: "basePath",
		},
		{
			name: "cache enabled without file",
			mutate: func(c *Config) {
				c.Modern.CacheEnabled = true
				c.Modern.CacheFile = ""
			},
			wantErr: "modern.cacheFile",
		},
		{
			name:    "unknown throttle store",
			mutate:  func(c *Config) { c.RateLimit.Store = "etcd" },
			wantErr: "rateLimit.store",
		},
		{
			name: "redis store without address",
			mutate: func(c *Config) {
				c.RateLimit.Store = "redis"
				c.RateLimit.Redis.Address = ""
			},
			wantErr: "redis.address",
		},
		{
			name:    "unknown result cache backend",
			mutate:  func(c *Config) { c.Resolver.ResultCacheBackend = "mongo" },
			wantErr: "resultCacheBackend",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "resolver:\n  resultCacheTTL: 1h30m\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Resolver.ResultCacheTTL.Duration())
}

func TestIsProductionCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Environment = "PRODUCTION"
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "development"
	assert.False(t, cfg.IsProduction())
}
