package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger for env and installs it as slog.Default.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(withContextAttrs(handler))
	slog.SetDefault(log)

	return log
}
