// Package logging is the module's structured-logging setup: a single
// zerolog.Logger configured once at process start and handed out as
// per-component child loggers.
//
// Grounded on _examples/cuemby-warren/pkg/log: the same Config/Init shape
// and WithComponent child-logger pattern, trimmed to this module's needs
// (no node/service/task id fields, which belong to warren's clustering
// domain, not this one).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide base logger; Init replaces it before any
// component logger is derived from it.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Level is a string-keyed log level, matched against cobra's
// human-typed --log-level flag without a numeric lookup table.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls Init.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init installs the process-wide logger from cfg.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with a "component" field,
// the only dimension this module's components need.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
