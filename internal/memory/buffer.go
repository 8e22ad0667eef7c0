// Package memory provides conversation message buffers for the agent loop.
//
// A Buffer is an ordered, append-only log of chat messages. The agent keeps
// two buffers per task: the persistent conversation history and a per-task
// scratch buffer that is merged into the persistent one when the task
// finalizes. Bounding and windowing are the caller's concern; the buffer
// itself never drops messages.
package memory

import (
	"github.com/firebase/genkit/go/ai"
)

// Buffer is an ordered chat message log.
//
// Buffer is not safe for concurrent use. Each task owns its buffers
// exclusively and the agent enforces one in-flight step per task, so no
// locking is needed here.
type Buffer struct {
	messages []*ai.Message
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferFrom returns a buffer seeded with msgs. The slice is copied;
// later appends do not alias the caller's slice.
func NewBufferFrom(msgs []*ai.Message) *Buffer {
	b := &Buffer{messages: make([]*ai.Message, len(msgs))}
	copy(b.messages, msgs)
	return b
}

// Add appends one message. Nil messages are ignored so callers can pass
// optional parts without guarding.
func (b *Buffer) Add(msg *ai.Message) {
	if msg == nil {
		return
	}
	b.messages = append(b.messages, msg)
}

// AddAll appends msgs in order.
func (b *Buffer) AddAll(msgs []*ai.Message) {
	for _, m := range msgs {
		b.Add(m)
	}
}

// Messages returns the messages in chronological order. The returned slice
// is a copy; mutating it does not affect the buffer. The messages
// themselves are shared; treat them as immutable once added.
func (b *Buffer) Messages() []*ai.Message {
	out := make([]*ai.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// All is an alias for Messages, kept for interface symmetry with richer
// memory strategies that distinguish a windowed view from the full log.
func (b *Buffer) All() []*ai.Message {
	return b.Messages()
}

// Len reports the number of messages.
func (b *Buffer) Len() int {
	return len(b.messages)
}

// Reset removes all messages.
func (b *Buffer) Reset() {
	b.messages = nil
}
