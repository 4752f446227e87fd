// Package logging provides structured logging for the hybrid router.
package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a log level.
type Level string

const (
	// LevelDebug is the debug log level.
	LevelDebug Level = "debug"
	// LevelInfo is the info log level.
	LevelInfo Level = "info"
	// LevelWarn is the warn log level.
	LevelWarn Level = "warn"
	// LevelError is the error log level.
	LevelError Level = "error"
)

// Format represents a log format.
type Format string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = "json"
	// FormatConsole outputs logs in human-readable format.
	FormatConsole Format = "console"
)

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum log level.
	Level Level

	// Format is the log output format.
	Format Format

	// Output is the output destination (stdout, stderr, or a file path).
	Output string

	// Development enables development mode (colored levels, verbose).
	Development bool

	// DisableCaller disables caller information in logs.
	DisableCaller bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: "stdout",
	}
}

// Logger wraps zap.Logger with a dynamically adjustable level.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(config *Config) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level := zap.NewAtomicLevel()
	level.SetLevel(parseLevel(config.Level))

	encoder := buildEncoder(config)

	output, err := buildOutput(config.Output)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if !config.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if config.Development {
		opts = append(opts, zap.Development())
	}

	return &Logger{
		Logger: zap.New(zapcore.NewCore(encoder, output, level), opts...),
		level:  level,
	}, nil
}

// NewNop returns a logger that discards all output.
func NewNop() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
		level:  zap.NewAtomicLevel(),
	}
}

// buildEncoder creates the appropriate encoder based on format.
func buildEncoder(config *Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if config.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if config.Format == FormatConsole {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// buildOutput creates the output writer based on the output configuration.
func buildOutput(outputPath string) (zapcore.WriteSyncer, error) {
	switch outputPath {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		//nolint:gosec // log files need broader read permissions
		file, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return zapcore.AddSync(file), nil
	}
}

// SetLevel sets the log level dynamically.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(parseLevel(level))
}

// With creates a child logger with the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
		level:  l.level,
	}
}

// Named creates a named child logger.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger: l.Logger.Named(name),
		level:  l.level,
	}
}

// parseLevel parses a Level to zapcore.Level.
func parseLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Context key for the logger.
type contextKey struct{}

var loggerContextKey = contextKey{}

// ContextWithLogger returns a new context carrying the logger.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext returns the logger from the context, or a nop logger.
func LoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return NewNop()
}
