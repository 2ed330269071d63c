// Package logging provides structured logging for svgpro using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level aliases zerolog's level type.
type Level = zerolog.Level

// Log levels exposed for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Options holds logger configuration.
type Options struct {
	// Level is the minimum level to emit.
	Level Level
	// Output is where log lines go. Defaults to os.Stderr.
	Output io.Writer
	// Console enables human-readable console output instead of JSON.
	Console bool
}

// DefaultOptions returns the default logger configuration.
func DefaultOptions() Options {
	return Options{
		Level:  InfoLevel,
		Output: os.Stderr,
	}
}

// Init initializes the global logger.
func Init(opts Options) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Output
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: opts.Output, TimeFormat: "15:04:05"}
	}

	Logger = zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses a level string (case-insensitive).
// Unrecognized values fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return Logger.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return Logger.Error() }

// Fatal starts a fatal-level log event. Msg/Send will exit the process.
func Fatal() *zerolog.Event { return Logger.Fatal() }

func init() {
	Init(DefaultOptions())
}
