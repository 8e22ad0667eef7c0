package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/memory"
)

// Store manages session persistence on PostgreSQL.
//
// Store is safe for concurrent use. All state lives in the database;
// row locking in AppendMessages handles concurrent writers.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore builds a session store on pool.
func NewStore(pool *pgxpool.Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, errors.New("session: pool is required")
	}
	if logger == nil {
		return nil, errors.New("session: logger is required")
	}
	return &Store{pool: pool, logger: logger}, nil
}

// CreateSession creates a new conversation session. Title may be empty.
func (s *Store) CreateSession(ctx context.Context, title string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (title) VALUES ($1)
		 RETURNING id, title, created_at, updated_at`,
		title,
	).Scan(&sess.ID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return &sess, nil
}

// Session retrieves one session by ID. Returns ErrNotFound if absent.
func (s *Store) Session(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &sess, nil
}

// Sessions lists sessions ordered by most recent activity first.
func (s *Store) Sessions(ctx context.Context, limit, offset int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions
		 ORDER BY updated_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// Rename updates a session's title.
func (s *Store) Rename(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET title = $2, updated_at = now() WHERE id = $1`,
		id, title,
	)
	if err != nil {
		return fmt.Errorf("renaming session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSession deletes a session and all its messages.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	s.logger.Debug("deleted session", "id", id)
	return nil
}

// AppendMessages appends messages to a session in one transaction.
//
// The session row is locked with FOR UPDATE while sequence numbers are
// assigned, so two writers appending to the same session cannot produce
// duplicate seq values. The session's updated_at moves inside the same
// transaction. Returns ErrNotFound if the session does not exist.
func (s *Store) AppendMessages(ctx context.Context, id uuid.UUID, messages []*ai.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for i, msg := range messages {
		if msg == nil {
			return fmt.Errorf("message %d is nil", i)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("locking session %s: %w", id, err)
	}

	var maxSeq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM session_messages WHERE session_id = $1`, id,
	).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence: %w", err)
	}

	for i, msg := range messages {
		content, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("marshaling message %d: %w", i, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO session_messages (session_id, seq, role, content)
			 VALUES ($1, $2, $3, $4)`,
			id, maxSeq+i+1, string(msg.Role), content,
		)
		if err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET updated_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended messages", "session_id", id, "count", len(messages))
	return nil
}

// Messages retrieves a session's messages ordered by sequence number.
// limit <= 0 means no limit.
func (s *Store) Messages(ctx context.Context, id uuid.UUID, limit, offset int) ([]*Message, error) {
	query := `SELECT id, session_id, seq, role, content, created_at
	          FROM session_messages WHERE session_id = $1 ORDER BY seq`
	args := []any{id}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting messages for %s: %w", id, err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			msg     Message
			content []byte
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Seq, &msg.Role, &content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal(content, &msg.Content); err != nil {
			s.logger.Warn("skipping malformed message", "id", msg.ID, "error", err)
			continue
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting messages for %s: %w", id, err)
	}
	return messages, nil
}

// History loads a session's full message history into a memory buffer
// the agent can resume from.
func (s *Store) History(ctx context.Context, id uuid.UUID) (*memory.Buffer, error) {
	messages, err := s.Messages(ctx, id, 0, 0)
	if err != nil {
		return nil, err
	}

	buf := memory.NewBuffer()
	for _, msg := range messages {
		buf.Add(msg.AsAIMessage())
	}
	return buf, nil
}

// SyncHistory persists the messages in buf that the database has not
// seen yet. The stored count is the high-water mark; everything past it
// in buf is appended. Call after a completed agent turn.
func (s *Store) SyncHistory(ctx context.Context, id uuid.UUID, buf *memory.Buffer) error {
	var stored int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_messages WHERE session_id = $1`, id,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("counting messages for %s: %w", id, err)
	}

	all := buf.Messages()
	if len(all) <= stored {
		return nil
	}
	return s.AppendMessages(ctx, id, all[stored:])
}
