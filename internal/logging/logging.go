// Package logging builds the process logger: tint for consoles, JSON for log shippers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/joseph-ayodele/dipex/internal/common"
)

// NewLogger creates the logger described by cfg and writes to stderr.
func NewLogger(cfg common.AppConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stderr)
}

// NewLoggerWithWriter is NewLogger with an explicit sink.
func NewLoggerWithWriter(cfg common.AppConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)
	addSource := level <= slog.LevelDebug

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: addSource})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  addSource,
			NoColor:    !isTerminal(w),
		})
	}

	logger := slog.New(h)
	if cfg.Name != "" {
		logger = logger.With("app", cfg.Name)
	}
	return logger
}

// ParseLevel maps debug|info|warn|error onto slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
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

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}
