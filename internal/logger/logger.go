// Package logger builds the process-wide hclog logger.
package logger

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls logger construction. Flags take precedence over the
// CAPSLOCK_LOG_LEVEL environment variable.
type Options struct {
	Level      string
	JSONFormat bool
}

// New creates the named hclog.Logger. Diagnostics go to stderr so report
// output on stdout stays machine-parseable.
func New(name string, opts Options) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		JSONFormat:  opts.JSONFormat,
		Output:      os.Stderr,
		Level:       determineLogLevel(opts.Level),
	})
}

// determineLogLevel resolves the level from the explicit option first, then
// the environment, then defaults to INFO.
func determineLogLevel(level string) hclog.Level {
	if level != "" {
		return parseLogLevel(strings.ToUpper(level))
	}
	if env := os.Getenv("CAPSLOCK_LOG_LEVEL"); env != "" {
		return parseLogLevel(strings.ToUpper(env))
	}
	return hclog.Info
}

// parseLogLevel converts a string level to hclog.Level.
func parseLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		hclog.New(&hclog.LoggerOptions{
			Level:       hclog.Warn,
			DisableTime: true,
			Output:      os.Stderr,
		}).Warn("Unrecognized log level, defaulting to INFO", "providedLevel", levelStr)
		return hclog.Info
	}
}
