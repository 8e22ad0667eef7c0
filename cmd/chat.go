package cmd

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skein-ai/skein/internal/agent"
	"github.com/skein-ai/skein/internal/app"
	"github.com/skein-ai/skein/internal/session"
	"github.com/skein-ai/skein/internal/tui"
)

var (
	chatNew       bool
	chatSessionID string
	chatRetrieve  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a fresh session instead of resuming")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume a specific session by ID")
	chatCmd.Flags().BoolVar(&chatRetrieve, "retrieve", false, "select tools per message by similarity instead of advertising all")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		sess, err := resolveSession(ctx, a)
		if err != nil {
			return err
		}
		if err := session.SetCurrentSessionID(sess.ID); err != nil {
			a.Logger.Warn("cannot record current session", "error", err)
		}

		history, err := a.Sessions.History(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		var ag *agent.Agent
		if chatRetrieve {
			ag, err = a.NewRetrievalAgent(history, 0)
		} else {
			ag, err = a.NewAgent(history)
		}
		if err != nil {
			return err
		}

		persist := func(ctx context.Context) error {
			return a.Sessions.SyncHistory(ctx, sess.ID, ag.Memory())
		}

		t, err := tui.New(ctx, ag, sess.ID, persist)
		if err != nil {
			return err
		}

		p := tea.NewProgram(t, tea.WithContext(ctx))
		_, err = p.Run()
		return err
	})
}

// resolveSession picks the session for this chat run: an explicit
// --session ID, a fresh one for --new, the recorded current session,
// or a brand new one when nothing is recorded.
func resolveSession(ctx context.Context, a *app.App) (*session.Session, error) {
	if chatSessionID != "" {
		id, err := uuid.Parse(chatSessionID)
		if err != nil {
			return nil, fmt.Errorf("invalid session ID %q: %w", chatSessionID, err)
		}
		return a.Sessions.Session(ctx, id)
	}

	if !chatNew {
		id, ok, err := session.CurrentSessionID()
		if err != nil {
			a.Logger.Warn("cannot read current session pointer", "error", err)
		} else if ok {
			sess, err := a.Sessions.Session(ctx, id)
			if err == nil {
				return sess, nil
			}
			// Stale pointer, fall through to a new session.
			a.Logger.Debug("recorded session missing, starting new", "session_id", id)
		}
	}

	return a.Sessions.CreateSession(ctx, "New chat")
}
