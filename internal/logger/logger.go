package logger

import (
	"io"
	"log/slog"
)

// New - JSON logger writing to w at the given level ("debug", "info", "warn", "error"; anything else is info).
func New(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
