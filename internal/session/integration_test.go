package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/session"
	"github.com/skein-ai/skein/internal/testutil"
)

func setupStore(t *testing.T) *session.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	store, err := session.NewStore(testDB.Pool, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "research notes")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.ID == uuid.Nil {
		t.Fatal("session has no ID")
	}
	if sess.Title != "research notes" {
		t.Errorf("title = %q", sess.Title)
	}

	got, err := store.Session(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got.ID != sess.ID || got.Title != sess.Title {
		t.Errorf("Session() = %+v, want %+v", got, sess)
	}

	if err := store.Rename(ctx, sess.ID, "renamed"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	got, _ = store.Session(ctx, sess.ID)
	if got.Title != "renamed" {
		t.Errorf("title after rename = %q", got.Title)
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := store.Session(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Session(deleted) error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSession(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("DeleteSession(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestSessionsOrderedByActivity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "first")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	second, err := store.CreateSession(ctx, "second")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// Touching the older session moves it to the front.
	err = store.AppendMessages(ctx, first.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
	})
	if err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}

	sessions, err := store.Sessions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("order = [%s, %s], want [%s, %s]",
			sessions[0].Title, sessions[1].Title, first.Title, second.Title)
	}
}

func TestAppendAndReadMessages(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	turn := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("what is 2+2?")),
		ai.NewModelMessage(ai.NewTextPart("4")),
	}
	if err := store.AppendMessages(ctx, sess.ID, turn); err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}
	if err := store.AppendMessages(ctx, sess.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("thanks")),
	}); err != nil {
		t.Fatalf("AppendMessages(second) error = %v", err)
	}

	messages, err := store.Messages(ctx, sess.ID, 0, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	for i, msg := range messages {
		if msg.Seq != i+1 {
			t.Errorf("messages[%d].Seq = %d, want %d", i, msg.Seq, i+1)
		}
	}
	if messages[0].Role != "user" || messages[1].Role != "model" {
		t.Errorf("roles = %q, %q", messages[0].Role, messages[1].Role)
	}
	if got := messages[1].AsAIMessage().Text(); got != "4" {
		t.Errorf("model text = %q, want %q", got, "4")
	}

	t.Run("empty batch is a no-op", func(t *testing.T) {
		if err := store.AppendMessages(ctx, sess.ID, nil); err != nil {
			t.Errorf("AppendMessages(nil) error = %v", err)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		err := store.AppendMessages(ctx, uuid.New(), turn)
		if !errors.Is(err, session.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := store.Messages(ctx, sess.ID, 2, 1)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if len(page) != 2 || page[0].Seq != 2 {
			t.Errorf("page = %d messages starting at seq %d, want 2 at 2",
				len(page), page[0].Seq)
		}
	})
}

func TestConcurrentAppendsKeepSequence(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.AppendMessages(ctx, sess.ID, []*ai.Message{
				ai.NewUserMessage(ai.NewTextPart("ping")),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append error = %v", err)
		}
	}

	messages, err := store.Messages(ctx, sess.ID, 0, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != writers {
		t.Fatalf("len(messages) = %d, want %d", len(messages), writers)
	}
	for i, msg := range messages {
		if msg.Seq != i+1 {
			t.Errorf("messages[%d].Seq = %d, want %d", i, msg.Seq, i+1)
		}
	}
}

func TestHistoryRoundtrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := store.AppendMessages(ctx, sess.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
		ai.NewModelMessage(ai.NewTextPart("hi there")),
	}); err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}

	buf, err := store.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if buf.Len() != 2 {
		t.Fatalf("buf.Len() = %d, want 2", buf.Len())
	}

	// A turn happens in memory; SyncHistory persists only the new tail.
	buf.Add(ai.NewUserMessage(ai.NewTextPart("and again")))
	buf.Add(ai.NewModelMessage(ai.NewTextPart("hello again")))
	if err := store.SyncHistory(ctx, sess.ID, buf); err != nil {
		t.Fatalf("SyncHistory() error = %v", err)
	}

	messages, err := store.Messages(ctx, sess.ID, 0, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(messages))
	}

	// Syncing an unchanged buffer stores nothing.
	if err := store.SyncHistory(ctx, sess.ID, buf); err != nil {
		t.Fatalf("SyncHistory(unchanged) error = %v", err)
	}
	messages, _ = store.Messages(ctx, sess.ID, 0, 0)
	if len(messages) != 4 {
		t.Errorf("len(messages) after idle sync = %d, want 4", len(messages))
	}
}
