// Package testutil holds shared test infrastructure: a deterministic
// mock model and embedder, and a pgvector-enabled postgres container.
package testutil

import "log/slog"

// DiscardLogger returns a logger that drops everything. Equivalent to
// log.NewNop; kept here so tests of the log package itself have a
// neutral logger.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
