package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kodhe/router/internal/config"
	"github.com/kodhe/router/internal/dispatch"
	"github.com/kodhe/router/internal/legacy"
	"github.com/kodhe/router/internal/observability/logging"
	"github.com/kodhe/router/internal/pipeline"
	"github.com/kodhe/router/internal/ratelimit"
	"github.com/kodhe/router/internal/ratelimit/store"
	"github.com/kodhe/router/internal/resolve"
	"github.com/kodhe/router/internal/router"
)

// application holds all server components.
type application struct {
	cfg    *config.Config
	logger *logging.Logger

	routes      *router.Registry
	handlers    *dispatch.Registry
	dispatcher  dispatch.Dispatcher
	middleware  *pipeline.Registry
	pipeline    *pipeline.Pipeline
	throttler   *ratelimit.Throttler
	store       store.Store
	resultCache resolve.ResultCache
	moduleIndex *legacy.ModuleIndex

	server        *http.Server
	metricsServer *http.Server

	// resolver is rebuilt on route-file reloads; the handler reads it
	// through the lock.
	mu       sync.RWMutex
	resolver *resolve.Resolver
}

// initApplication initializes all server components.
func initApplication(cfg *config.Config, logger *logging.Logger) *application {
	app := &application{
		cfg:      cfg,
		logger:   logger,
		routes:   router.NewRegistry(logger),
		handlers: dispatch.NewRegistry(),
	}
	app.dispatcher = dispatch.NewDispatcher(app.handlers)
	app.routes.Collection().SetBasePath(cfg.BasePath)

	if cfg.Modern.CacheEnabled && cfg.IsProduction() {
		restored, err := app.routes.Collection().LoadSnapshot(
			cfg.Modern.CacheFile, true, app.routes.Patterns(), logger)
		if err != nil {
			logger.Warn("route snapshot load failed", logging.Err(err))
		} else if restored > 0 {
			logger.Info("route snapshot restored", logging.Int("routes", restored))
		}
	}

	registerBuiltinRoutes(app)

	if cfg.Modern.CacheEnabled && !cfg.IsProduction() {
		if err := app.routes.Collection().SaveSnapshot(cfg.Modern.CacheFile); err != nil {
			logger.Warn("route snapshot save failed", logging.Err(err))
		}
	}

	app.moduleIndex = initModuleIndex(cfg, logger)
	app.store = initStore(cfg, logger)
	app.throttler = ratelimit.NewThrottler(app.store, logger)
	app.resultCache = initResultCache(cfg)
	app.resolver = app.buildResolver(app.buildLocator())
	app.middleware = initMiddleware(app, logger)
	app.pipeline = pipeline.New(app.middleware, pipeline.Options{
		Debug: !cfg.IsProduction(),
	}, logger)

	app.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           app.routedHandler(),
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
	}
	if cfg.Server.MetricsAddress != "" {
		app.metricsServer = newMetricsServer(cfg.Server.MetricsAddress)
	}

	return app
}

// registerBuiltinRoutes registers the operational routes every
// deployment gets regardless of application route registration.
func registerBuiltinRoutes(app *application) {
	app.routes.Get("/healthz", func(r *http.Request, params map[string]string) (interface{}, error) {
		return map[string]interface{}{"status": "ok", "version": version}, nil
	}).Name("healthz")
}

// initModuleIndex builds the legacy module index, preferring the cache
// artifact over a filesystem scan.
func initModuleIndex(cfg *config.Config, logger *logging.Logger) *legacy.ModuleIndex {
	if !cfg.Legacy.Enabled {
		return nil
	}

	index := legacy.NewModuleIndex(cfg.Legacy.ModuleRoots, logger)
	if cfg.Legacy.ModuleCacheFile != "" {
		if err := index.Load(cfg.Legacy.ModuleCacheFile); err != nil {
			logger.Warn("module index load failed", logging.Err(err))
		}
		if err := index.Save(cfg.Legacy.ModuleCacheFile); err != nil {
			logger.Warn("module index save failed", logging.Err(err))
		}
	} else if err := index.Scan(); err != nil {
		logger.Warn("module scan failed", logging.Err(err))
	}

	return index
}

// initStore selects the throttle counter backend. A nil return keeps
// counters local to the process.
func initStore(cfg *config.Config, logger *logging.Logger) store.Store {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Store != "redis" {
		return nil
	}

	s, err := store.NewRedisStore(&store.RedisConfig{
		Address:      cfg.RateLimit.Redis.Address,
		Password:     cfg.RateLimit.Redis.Password,
		DB:           cfg.RateLimit.Redis.DB,
		Prefix:       cfg.RateLimit.Redis.Prefix + "throttle:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		logger.Fatal("failed to connect to redis throttle store", logging.Err(err))
	}
	return s
}

// initResultCache builds the resolution result cache.
func initResultCache(cfg *config.Config) resolve.ResultCache {
	if !cfg.Resolver.ResultCacheEnabled {
		return nil
	}

	ttl := cfg.Resolver.ResultCacheTTL.Duration()
	if cfg.Resolver.ResultCacheBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Address,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		return resolve.NewRedisResultCache(client, cfg.RateLimit.Redis.Prefix, ttl)
	}
	return resolve.NewMemoryResultCache(ttl)
}

// buildLocator assembles the legacy segment locator from configuration
// and the declared route-definition files.
func (app *application) buildLocator() *legacy.Locator {
	if !app.cfg.Legacy.Enabled {
		return nil
	}

	locator := legacy.NewLocator(legacy.Config{
		AppControllerDir:  app.cfg.Legacy.AppControllerDir,
		DefaultController: app.cfg.Legacy.DefaultController,
		NotFoundOverride:  app.cfg.Legacy.NotFoundOverride,
		TranslateDashes:   app.cfg.Legacy.TranslateDashes,
	}, app.moduleIndex, app.handlers, app.logger)

	for _, path := range app.cfg.Legacy.RouteFiles {
		file, err := legacy.ParseRouteFile(path)
		if err != nil {
			app.logger.Warn("route file skipped", logging.Path(path), logging.Err(err))
			continue
		}
		locator.ApplyRouteFile(file)
	}

	return locator
}

// buildResolver assembles the hybrid resolver over the current locator.
func (app *application) buildResolver(locator *legacy.Locator) *resolve.Resolver {
	return resolve.NewResolver(resolve.Options{
		ModernEnabled:    app.cfg.Modern.Enabled,
		LegacyEnabled:    app.cfg.Legacy.Enabled,
		LegacyFirst:      app.cfg.Legacy.First,
		NamespaceRoots:   app.cfg.Resolver.NamespaceRoots,
		ControllerSuffix: app.cfg.Resolver.ControllerSuffix,
		Cache:            app.resultCache,
	}, app.routes.Collection(), locator, app.handlers, app.logger)
}

// initMiddleware registers the built-in middleware under the names
// routes and the base chain reference them by.
func initMiddleware(app *application, logger *logging.Logger) *pipeline.Registry {
	reg := pipeline.NewRegistry(logger)
	reg.Register("recovery", pipeline.Recovery(logger))
	reg.Register("request-id", pipeline.RequestID())
	reg.Register("access-log", pipeline.AccessLog(logger))
	reg.Register("throttle", pipeline.RateLimit(app.throttler))
	return reg
}

// currentResolver returns the active resolver.
func (app *application) currentResolver() *resolve.Resolver {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.resolver
}

// routedHandler adapts the resolve-pipeline-dispatch flow to http.Handler.
func (app *application) routedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := app.currentResolver().Resolve(r)
		_ = app.pipeline.Run(w, r, result, app.chainRefs(result),
			func(w http.ResponseWriter, r *http.Request, result *resolve.RoutingResult) (interface{}, error) {
				return app.dispatcher.Dispatch(r, result)
			})
	})
}

// chainRefs builds the middleware reference list for one request: the
// base chain first, then whatever the matched route declares. Route
// middleware is taken from the serialized result so a result-cache hit
// still runs the full chain.
func (app *application) chainRefs(result *resolve.RoutingResult) []interface{} {
	refs := []interface{}{"recovery", "request-id", "access-log"}
	if app.cfg.RateLimit.Enabled {
		refs = append(refs, "throttle")
	}
	if result != nil {
		for _, name := range result.Middleware {
			refs = append(refs, name)
		}
	}
	return refs
}

// reload rebuilds the legacy resolution state after a route-definition
// file change. Modern routes are registered in code and do not reload.
func (app *application) reload(path string) {
	app.logger.Info("route definitions changed; rebuilding", logging.Path(path))

	if app.moduleIndex != nil {
		app.moduleIndex.Invalidate()
		if err := app.moduleIndex.Scan(); err != nil {
			app.logger.Warn("module rescan failed", logging.Err(err))
		}
		if app.cfg.Legacy.ModuleCacheFile != "" {
			if err := app.moduleIndex.Save(app.cfg.Legacy.ModuleCacheFile); err != nil {
				app.logger.Warn("module index save failed", logging.Err(err))
			}
		}
	}

	resolver := app.buildResolver(app.buildLocator())
	if app.resultCache != nil {
		app.resultCache.Clear(context.Background())
	}

	app.mu.Lock()
	app.resolver = resolver
	app.mu.Unlock()
}
