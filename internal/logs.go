package internal

import (
	"log/slog"
	"os"
	"strings"
)

// GetLoggerFromString builds the process logger from a LOG_LEVEL value.
// Unrecognized levels fall back to INFO.
func GetLoggerFromString(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN", "WARNING":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
