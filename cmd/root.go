// Package cmd provides the CLI commands for skein.
//
// Commands:
//   - chat: Interactive terminal chat with a Bubble Tea TUI
//   - ask: One-shot question, optionally answered from the knowledge base
//   - ingest: Load files, directories, or web pages into the knowledge base
//   - sessions: Manage persisted chat sessions
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skein-ai/skein/internal/app"
	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "skein",
	Short: "Skein - terminal RAG assistant",
	Long: `Skein is a terminal assistant that answers from your own documents.
Ingest files and web pages into a local knowledge base, then chat with
an agent that searches it, reads files, and fetches pages as needed.

Running skein without arguments starts the interactive chat.`,
	RunE:          runChat,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point for the skein CLI.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. Logs go to stderr so stdout
// stays clean for command output. DEBUG enables debug level.
func newLogger() log.Logger {
	level := "info"
	if os.Getenv("DEBUG") != "" {
		level = "debug"
	}
	return log.New(log.Config{Level: level})
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp loads configuration, assembles the application, runs fn, and
// tears everything down afterwards. All commands that need the backend
// go through this.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.Setup(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.Logger.Warn("shutdown incomplete", "error", cerr)
		}
	}()

	return fn(ctx, a)
}
