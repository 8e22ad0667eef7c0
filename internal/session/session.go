// Package session persists conversation history to PostgreSQL.
//
// A session is an ordered sequence of messages exchanged between the user
// and the model. [Store] owns persistence; the agent owns conversation
// logic and hands finished turns to [Store.AppendMessages].
//
// AppendMessages locks the session row with SELECT ... FOR UPDATE before
// assigning sequence numbers, so concurrent writers to the same session
// serialize instead of colliding on seq.
//
// The active session for the local workstation lives in a pointer file
// (~/.skein/current_session), written atomically under a flock.
package session

import (
	"errors"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// ErrNotFound indicates the requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Session is one conversation, identified by UUID.
type Session struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one stored conversation message. Content holds the genkit
// part slice exactly as the model produced it, serialized as JSONB.
type Message struct {
	ID        int64
	SessionID uuid.UUID
	Role      string // "user" | "model" | "system" | "tool"
	Content   []*ai.Part
	Seq       int
	CreatedAt time.Time
}

// AsAIMessage converts the stored message back to a genkit message.
func (m *Message) AsAIMessage() *ai.Message {
	return &ai.Message{Role: ai.Role(m.Role), Content: m.Content}
}
