package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kodhe/router/internal/config"
	"github.com/kodhe/router/internal/observability/logging"
)

// run starts the servers and the route-file watcher, then blocks until
// a shutdown signal arrives.
func run(app *application, configPath string, logger *logging.Logger) {
	if app.metricsServer != nil {
		go func() {
			logger.Info("starting metrics server", logging.String("address", app.metricsServer.Addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logging.Err(err))
			}
		}()
	}

	go func() {
		logger.Info("starting http server", logging.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", logging.Err(err))
		}
	}()

	watcher := startWatcher(app, configPath, logger)

	waitForShutdown(app, watcher, logger)
}

// newMetricsServer serves Prometheus metrics and liveness probes on a
// separate listener so operational traffic never routes through the
// resolution engine.
func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// startWatcher watches the configuration file and the legacy
// route-definition files for changes.
func startWatcher(app *application, configPath string, logger *logging.Logger) *config.Watcher {
	paths := append([]string{configPath}, app.cfg.Legacy.RouteFiles...)

	watcher, err := config.NewWatcher(paths, app.reload, config.WithWatcherLogger(logger))
	if err != nil {
		logger.Warn("failed to create file watcher", logging.Err(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start file watcher", logging.Err(err))
	}

	return watcher
}

// waitForShutdown waits for a shutdown signal and drains gracefully.
func waitForShutdown(app *application, watcher *config.Watcher, logger *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if app.metricsServer != nil {
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server gracefully", logging.Err(err))
		}
	}

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop http server gracefully", logging.Err(err))
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logger.Error("failed to close throttle store", logging.Err(err))
		}
	}

	logger.Info("router stopped")
}
