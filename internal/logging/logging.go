// Package logging builds the structured loggers used across the catalog
// packages.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

// Supported levels.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLevel converts a level name (debug, info, warn, error) to a LogLevel.
// Unknown names map to LogLevelInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogConfig holds configuration for a logger.
type LogConfig struct {
	// Level sets the minimum log level
	Level LogLevel
	// JSON selects the JSON handler instead of the text handler
	JSON bool
	// EnableCallerInfo includes file and line number in logs
	EnableCallerInfo bool
	// Output is where log lines are written (defaults to os.Stderr)
	Output io.Writer
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(config LogConfig) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	}

	if config.JSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrNop returns logger, or a discarding logger if logger is nil.
func OrNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNopLogger()
	}
	return logger
}

// LogOperation logs the completion of a synchronization operation with its
// duration. Failed operations are logged at warn level.
func LogOperation(ctx context.Context, logger *slog.Logger, operation string, duration time.Duration, err error, fields ...any) {
	if logger == nil {
		return
	}

	args := append([]any{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}, fields...)

	if err != nil {
		args = append(args, "error", err.Error())
		logger.WarnContext(ctx, "operation failed", args...)
		return
	}
	logger.InfoContext(ctx, "operation completed", args...)
}
