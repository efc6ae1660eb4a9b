package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Services receive children of
// this logger via their WithLogger options.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
