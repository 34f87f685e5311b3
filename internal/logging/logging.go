// Package logging configures structured logging for the engine.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger writing to w. Format is "text" or "json"; level is
// one of debug, info, warn, error (case-insensitive).
func New(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// FromEnv builds a logger from ENGRAM_LOG_LEVEL and ENGRAM_LOG_FORMAT.
func FromEnv() *slog.Logger {
	return New(os.Stderr, os.Getenv("ENGRAM_LOG_LEVEL"), os.Getenv("ENGRAM_LOG_FORMAT"))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
