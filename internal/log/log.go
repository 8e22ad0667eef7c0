// Package log provides the logging infrastructure for skein.
//
// Loggers are plain *slog.Logger values injected via constructors; there
// is no package-level logger. Components add context with logger.With().
//
// Usage:
//
//	logger := log.New(log.Config{Level: "debug", JSON: true})
//	worker := agent.NewWorker(agent.WorkerConfig{Logger: logger.With("component", "worker"), ...})
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is an alias for *slog.Logger so dependents don't need to import
// log/slog alongside this package. Using the stdlib type directly keeps
// full compatibility with the slog ecosystem.
type Logger = *slog.Logger

// Config controls logger construction.
type Config struct {
	// Level is the minimum level as a string: "debug", "info", "warn",
	// "error". Empty or unknown values fall back to "info".
	Level string

	// JSON switches output to JSON handler format. Default is text.
	JSON bool

	// AddSource attaches source file/line to every record.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w. Tests pass a bytes.Buffer
// to inspect output.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// NewNop returns a logger that discards everything. Test-only; production
// code should always construct a real logger so failures stay visible.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level. Unknown names map to Info.
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
