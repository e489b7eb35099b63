// Package logger configures the process-wide zerolog logger and carries
// request-scoped sub-loggers through context.
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger with the given level
// (debug|info|warn|error). Unknown or empty levels fall back to info.
func Setup(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// FromContext returns the request-scoped logger injected by the logging
// middleware, or the global logger when none is present.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
