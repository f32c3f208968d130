// Package logging builds the slog loggers used by the closet binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger writes one JSON record per line to stdout. Every record
// carries the service name and, when set, the deployment environment.
func NewJSONLogger(service, env, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, env, level)
}

func newJSONLogger(w io.Writer, service, env, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	attrs := []any{"service", service}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, "env", env)
	}
	return logger.With(attrs...)
}

// NewTextLogger writes human-readable records to w, for the CLI.
func NewTextLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values mean info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	switch v := strings.ToLower(strings.TrimSpace(level)); v {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		if err := l.UnmarshalText([]byte(v)); err != nil {
			return slog.LevelInfo
		}
		return l
	}
}
