// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger returns a logger writing to stderr and installs it as the slog default.
//
// The dev environment gets colorized human-readable output; every other
// environment gets JSON.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	l := NewLogger(os.Stderr, level, environment)
	slog.SetDefault(l)
	return l
}

// NewLogger is InitLogger without the global side effect.
func NewLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	if environment == "dev" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level. Unknown values are info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
