// Package llm wraps model generation behind a small interface so the
// agent loop never talks to a provider SDK directly. The production
// implementation is Client, backed by Genkit; tests substitute fakes.
package llm

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/skein-ai/skein/internal/tools"
)

// StreamCallback receives partial model output as it arrives. Returning
// an error aborts the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Request is one model invocation: the full conversation so far plus
// the tools the model may call this turn.
type Request struct {
	// System is an optional system prompt prepended to the conversation.
	System string

	// Messages is the conversation history, oldest first.
	Messages []*ai.Message

	// Tools advertises callable tools for this turn. Tool requests are
	// returned to the caller, never auto-executed.
	Tools []tools.Tool

	// ToolChoice optionally constrains tool use ("auto", "required",
	// "none"). Empty leaves the provider default.
	ToolChoice ai.ToolChoice

	// Stream, when non-nil, enables streaming delivery of the response.
	Stream StreamCallback
}

// Generator produces one model response per request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*ai.ModelResponse, error)
}
