// Package sysutil holds small process-level helpers shared by the entrypoint
// and the observability wiring.
package sysutil

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// SetLogLevel sets the global zerolog level. Unknown or empty values fall
// back to info so a typo in LOG_LEVEL never silences the service.
func SetLogLevel(lvl string) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(lvl))]
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Hostname returns the machine hostname, or "unknown" when the lookup fails,
// so trace resource attributes always carry a value.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil || strings.TrimSpace(h) == "" {
		return "unknown"
	}
	return h
}
