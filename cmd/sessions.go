package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skein-ai/skein/internal/app"
	"github.com/skein-ai/skein/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

func init() {
	sessionsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sessions, most recently active first",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(runSessionsList)
			},
		},
		&cobra.Command{
			Use:   "show <session-id>",
			Short: "Show a session's messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(ctx context.Context, a *app.App) error {
					return runSessionsShow(ctx, a, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "rename <session-id> <title>",
			Short: "Rename a session",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(ctx context.Context, a *app.App) error {
					return runSessionsRename(ctx, a, args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "delete <session-id>",
			Short: "Delete a session and its messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(ctx context.Context, a *app.App) error {
					return runSessionsDelete(ctx, a, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "use <session-id>",
			Short: "Make a session the one chat resumes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(func(ctx context.Context, a *app.App) error {
					return runSessionsUse(ctx, a, args[0])
				})
			},
		},
	)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(ctx context.Context, a *app.App) error {
	sessions, err := a.Sessions.Sessions(ctx, 100, 0)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Run skein chat to start one.")
		return nil
	}

	current, _, _ := session.CurrentSessionID()
	for _, s := range sessions {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %s  %-30s  %s\n", marker, s.ID, truncate(s.Title, 30), formatTime(s.UpdatedAt))
	}
	return nil
}

func runSessionsShow(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", rawID)
	}

	sess, err := a.Sessions.Session(ctx, id)
	if err != nil {
		return err
	}
	messages, err := a.Sessions.Messages(ctx, id, 0, 0)
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s\n", sess.ID)
	fmt.Printf("Title: %s\n", sess.Title)
	fmt.Printf("Created: %s\n", formatTime(sess.CreatedAt))
	fmt.Printf("Updated: %s\n", formatTime(sess.UpdatedAt))
	fmt.Printf("Messages: %d\n", len(messages))
	fmt.Println()

	for _, msg := range messages {
		role := "You"
		if msg.Role == "model" {
			role = "Skein"
		}
		fmt.Printf("%s> %s\n\n", role, msg.AsAIMessage().Text())
	}
	return nil
}

func runSessionsRename(ctx context.Context, a *app.App, rawID, title string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", rawID)
	}
	if err := a.Sessions.Rename(ctx, id, title); err != nil {
		return err
	}
	fmt.Printf("Renamed %s\n", id)
	return nil
}

func runSessionsDelete(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", rawID)
	}
	if err := a.Sessions.DeleteSession(ctx, id); err != nil {
		return err
	}

	// Drop the pointer if it referenced the deleted session.
	if current, ok, _ := session.CurrentSessionID(); ok && current == id {
		if err := session.ClearCurrentSessionID(); err != nil {
			a.Logger.Warn("cannot clear current session pointer", "error", err)
		}
	}

	fmt.Printf("Deleted %s\n", id)
	return nil
}

func runSessionsUse(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", rawID)
	}
	// Verify it exists before recording it.
	if _, err := a.Sessions.Session(ctx, id); err != nil {
		return err
	}
	if err := session.SetCurrentSessionID(id); err != nil {
		return err
	}
	fmt.Printf("Now using %s\n", id)
	return nil
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

// formatTime renders t relative to now for recent times.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
