package logger

import (
	"log/slog"
	"os"
)

// New returns the shared JSON logger. Services and handlers receive it via
// constructor injection rather than reaching for the slog default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
