// Package sysutil holds process-level helpers for logging setup.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// InitLogging installs the global logger. Output goes to stderr (pretty
// console format when requested) and, when capture is non-nil, to the
// in-memory capture sink as well.
func InitLogging(level string, pretty bool, capture io.Writer) {
	SetLogLevel(level)

	var primary io.Writer = os.Stderr
	if pretty {
		primary = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	w := primary
	if capture != nil {
		w = zerolog.MultiLevelWriter(primary, capture)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
