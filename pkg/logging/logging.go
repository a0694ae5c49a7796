// Package logging sets up the process-wide zerolog logger. Level comes from
// NREGAHUB_LOG_LEVEL, format from NREGAHUB_LOG_FORMAT (console or json).
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with the given component name.
func New(component string) zerolog.Logger {
	level := parseLevel(os.Getenv("NREGAHUB_LOG_LEVEL"))

	var logger zerolog.Logger
	if strings.EqualFold(os.Getenv("NREGAHUB_LOG_FORMAT"), "json") {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		})
	}

	return logger.Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
