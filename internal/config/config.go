// Package config provides configuration management for the hybrid router.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment names. Production gates route-cache loading and strips debug
// details from error responses.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config is the root configuration for the hybrid router.
type Config struct {
	// Environment is the deployment environment ("production", "development").
	Environment string `yaml:"environment"`

	// BasePath is the URL prefix stripped from incoming request paths when
	// the deployment is not at the web root (e.g. "/app").
	BasePath string `yaml:"basePath"`

	Server    ServerConfig    `yaml:"server"`
	Modern    ModernConfig    `yaml:"modern"`
	Legacy    LegacyConfig    `yaml:"legacy"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address of the routed HTTP server.
	Address string `yaml:"address"`

	// MetricsAddress is the listen address of the metrics and health
	// server. Empty disables it.
	MetricsAddress string `yaml:"metricsAddress"`

	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// ModernConfig configures the pattern-compiled router.
type ModernConfig struct {
	// Enabled turns the modern router on. When disabled, resolution goes
	// straight to the legacy segment locator.
	Enabled bool `yaml:"enabled"`

	// CacheEnabled turns the route snapshot cache on.
	CacheEnabled bool `yaml:"cacheEnabled"`

	// CacheFile is the path of the route snapshot artifact.
	CacheFile string `yaml:"cacheFile"`
}

// LegacyConfig configures the filesystem-convention segment router.
type LegacyConfig struct {
	// Enabled turns the legacy segment locator on.
	Enabled bool `yaml:"enabled"`

	// First makes the resolver try legacy resolution before the modern
	// route table.
	First bool `yaml:"first"`

	// AppControllerDir is the application root controllers directory.
	AppControllerDir string `yaml:"appControllerDir"`

	// ModuleRoots are the directories scanned for modules. A module is a
	// directory containing a controllers/ subdirectory.
	ModuleRoots []string `yaml:"moduleRoots"`

	// ModuleCacheFile is the path of the module index artifact.
	ModuleCacheFile string `yaml:"moduleCacheFile"`

	// DefaultController is used when the request has no segments. It may
	// carry a method in "controller/method" form.
	DefaultController string `yaml:"defaultController"`

	// NotFoundOverride is a "controller/method" target resolved through
	// the same search before giving up with the canonical 404.
	NotFoundOverride string `yaml:"notFoundOverride"`

	// TranslateDashes replaces "-" with "_" in the first three segments
	// before the search runs.
	TranslateDashes bool `yaml:"translateDashes"`

	// RouteFiles are legacy route-definition YAML files with pattern
	// rewrites (":any", ":num", capture groups).
	RouteFiles []string `yaml:"routeFiles"`
}

// ResolverConfig configures the hybrid resolver.
type ResolverConfig struct {
	// ResultCacheEnabled turns per-path resolution result caching on.
	ResultCacheEnabled bool `yaml:"resultCacheEnabled"`

	// ResultCacheTTL bounds the lifetime of cached resolution results.
	ResultCacheTTL Duration `yaml:"resultCacheTTL"`

	// ResultCacheBackend selects where results are cached: "memory" or
	// "redis". The redis backend shares the rateLimit.redis connection
	// settings.
	ResultCacheBackend string `yaml:"resultCacheBackend"`

	// NamespaceRoots are conventional namespace roots tried when deriving
	// a fully-qualified handler identifier.
	NamespaceRoots []string `yaml:"namespaceRoots"`

	// ControllerSuffix is an optional suffix appended to derived handler
	// identifiers (e.g. "Controller").
	ControllerSuffix string `yaml:"controllerSuffix"`
}

// RateLimitConfig configures route rate limiting.
type RateLimitConfig struct {
	// Enabled turns rate limiting on for routes that declare a policy.
	Enabled bool `yaml:"enabled"`

	// Store selects the counter backend: "memory" or "redis".
	Store string `yaml:"store"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for distributed counters
// and the resolution result cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Modern: ModernConfig{
			Enabled:   true,
			CacheFile: "cache/routes.cache",
		},
		Legacy: LegacyConfig{
			Enabled:           true,
			AppControllerDir:  "app/controllers",
			ModuleCacheFile:   "cache/modules.cache",
			DefaultController: "home",
		},
		Resolver: ResolverConfig{
			NamespaceRoots: []string{"App\\Controllers", "Controllers"},
		},
		RateLimit: RateLimitConfig{
			Store: "memory",
			Redis: RedisConfig{
				Address: "localhost:6379",
				Prefix:  "router:",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// IsProduction reports whether the environment is production-like.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if !c.Modern.Enabled && !c.Legacy.Enabled {
		return fmt.Errorf("config error: at least one of modern or legacy routing must be enabled")
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("config error at basePath: must start with '/', got %q", c.BasePath)
	}

	if c.Modern.CacheEnabled && c.Modern.CacheFile == "" {
		return fmt.Errorf("config error at modern.cacheFile: required when cache is enabled")
	}

	if c.Legacy.Enabled && c.AppAndModulesEmpty() {
		return fmt.Errorf("config error at legacy: appControllerDir or moduleRoots required")
	}

	switch c.RateLimit.Store {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("config error at rateLimit.store: unknown store %q", c.RateLimit.Store)
	}

	switch c.Resolver.ResultCacheBackend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("config error at resolver.resultCacheBackend: unknown backend %q", c.Resolver.ResultCacheBackend)
	}

	if c.Resolver.ResultCacheBackend == "redis" && c.RateLimit.Redis.Address == "" {
		return fmt.Errorf("config error at rateLimit.redis.address: required for redis result cache")
	}

	if c.RateLimit.Store == "redis" && c.RateLimit.Redis.Address == "" {
		return fmt.Errorf("config error at rateLimit.redis.address: required for redis store")
	}

	return nil
}

// AppAndModulesEmpty reports whether no legacy search root is configured.
func (c *Config) AppAndModulesEmpty() bool {
	return c.Legacy.AppControllerDir == "" && len(c.Legacy.ModuleRoots) == 0
}
