package internal

import (
	"io"
	"log/slog"
)

// NewLogger returns the process logger: text in development, JSON
// everywhere else. Every record carries the app name and environment.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("app", "fleetintake", "env", env)
}

// ParseLevel maps a LOG_LEVEL name to a slog level. Unknown names log at
// info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
