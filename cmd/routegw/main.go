// Package main is the entry point for the hybrid router server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kodhe/router/internal/config"
	"github.com/kodhe/router/internal/observability/logging"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	app := initApplication(cfg, logger)

	run(app, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("ROUTER_CONFIG_PATH", "configs/router.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("ROUTER_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("ROUTER_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("routegw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) *logging.Logger {
	logger, err := logging.NewLogger(&logging.Config{
		Level:  logging.Level(flags.logLevel),
		Format: logging.Format(flags.logFormat),
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadAndValidateConfig loads and validates the configuration. A missing
// file is not fatal: the server starts with defaults so the engine can
// run without any deployment-specific configuration.
func loadAndValidateConfig(configPath string, logger *logging.Logger) *config.Config {
	logger.Info("starting routegw",
		logging.String("version", version),
		logging.Path(configPath),
	)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Warn("configuration file not found; using defaults", logging.Path(configPath))
		return config.DefaultConfig()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", logging.Err(err))
	}

	logger.Info("configuration loaded",
		logging.String("environment", cfg.Environment),
		logging.Bool("modern", cfg.Modern.Enabled),
		logging.Bool("legacy", cfg.Legacy.Enabled),
		logging.Bool("legacy_first", cfg.Legacy.First),
		logging.Int("route_files", len(cfg.Legacy.RouteFiles)),
	)

	return cfg
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
