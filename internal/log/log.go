/*
Package log provides structured logging for barn using zerolog.

It wraps zerolog to give every package in the module JSON or console
structured logging with component-scoped child loggers, configured once
via Init and shared thereafter through the package-level Logger.
*/
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, set by Init.
var Logger zerolog.Logger

// Level is a logging severity.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. Safe to call more than once
// (e.g. once per CLI invocation after flags are parsed).
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
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func init() {
	// Sane default so packages can log before a front-end calls Init
	// (e.g. in tests).
	Init(Config{Level: InfoLevel})
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithResource returns a child logger tagged with a resource name.
func WithResource(resource string) zerolog.Logger {
	return Logger.With().Str("resource", resource).Logger()
}

// WithBarrel returns a child logger tagged with a "barrel" field, for
// call sites inside the barrel/index layer, where "barrel" is the more
// natural noun than WithResource's "resource".
func WithBarrel(name string) zerolog.Logger {
	return Logger.With().Str("barrel", name).Logger()
}
