package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/railmap/internal/config"
)

// newLogger builds the process logger from the validated log section. The
// global slog default is left alone so tests can run several apps at once.
func newLogger(cfg config.Log, outW io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(outW, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler).With("service", "railmap")
}
