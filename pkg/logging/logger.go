// Package logging provides structured logging configuration using zerolog.
//
// All diagnostics go to stderr so that stdout stays reserved for NDJSON
// data. Commands log human-readable colored output by default and switch
// to raw JSON with LOG_FORMAT=json.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// FromEnv returns a configuration driven by LOG_LEVEL and LOG_FORMAT.
// Pretty console output is the default for interactive use; LOG_FORMAT=json
// switches to machine-readable lines.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.Pretty = true
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = LogLevel(v)
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		cfg.Pretty = false
	}
	return cfg
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewRunLogger creates a component logger tagged with a fresh run_id.
// Every line of one command invocation carries the same id, so runs can
// be told apart in a shared log stream.
func NewRunLogger(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("run_id", uuid.NewString()).
		Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual API requests (endpoint, variables, duration)
//   - Cursor values threaded between pages
//   - Per-record resolution timing
//
// Info: Normal operation events
//   - Page fetched (page number, record count)
//   - Batch dispatched / batch completed (size, cost, tokens)
//   - Run summary (records, skipped, total cost)
//
// Warn: Warning conditions that don't prevent operation
//   - Cost throttle engaged (available capacity, wait duration)
//   - Oversized input lines
//
// Error: Error conditions requiring attention
//   - Failed requests (status code, response body)
//   - GraphQL / GROQ application errors
//   - Generation failures (subtype, message)
//   - Configuration errors (missing environment variables)
//
// Context Fields:
//   - run_id: Unique id for one command invocation
//   - component: Emitting package (shopify, agent, descriptions, ...)
//   - page: 1-based page number of a paginated fetch
//   - cursor: Opaque pagination cursor (debug only)
//   - batch: 1-based batch number in a generation run
//   - status_code: HTTP status code
//   - duration: Request duration
//   - available: Remaining query-cost capacity reported by the API
//   - cost_usd: Generation cost for a batch or run
