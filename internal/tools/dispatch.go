package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Output is the recorded result of one tool invocation. Every tool call
// produces exactly one Output, success or failure; nothing is dropped.
type Output struct {
	// ToolName is the tool the model asked for, resolvable or not.
	ToolName string

	// CallID correlates the output with the originating tool request.
	CallID string

	// Raw is the value the handler returned, nil on failure.
	Raw any

	// Content is the human-readable form placed into the tool-role chat
	// message: the raw value coerced to a string, or the failure text.
	Content string

	// IsError marks recoverable failures: unknown tool, malformed
	// arguments, or a handler error. The loop continues either way; the
	// model reads Content and reacts.
	IsError bool
}

// errorOutput records a recoverable tool failure.
func errorOutput(name, callID string, err error) Output {
	return Output{
		ToolName: name,
		CallID:   callID,
		Content:  fmt.Sprintf("error calling tool %q: %v", name, err),
		IsError:  true,
	}
}

// Call resolves and executes one model tool request against the
// registry. All failure modes (unknown tool, bad arguments, handler
// error) come back as error-flagged Outputs; Call never returns an
// error itself so a failed call cannot abort the enclosing step.
func Call(ctx context.Context, reg *Registry, req *ai.ToolRequest) Output {
	t, ok := reg.Lookup(req.Name)
	if !ok {
		return errorOutput(req.Name, req.Ref, fmt.Errorf("tool not found, available tools: %v", reg.Names()))
	}

	raw, err := t.Execute(ctx, req.Input)
	if err != nil {
		return errorOutput(req.Name, req.Ref, err)
	}

	return Output{
		ToolName: req.Name,
		CallID:   req.Ref,
		Raw:      raw,
		Content:  Stringify(raw),
	}
}

// Stringify coerces a tool result to the string that goes into the
// tool-role chat message. Strings pass through untouched; everything
// else is JSON-encoded so structured results stay machine-readable.
func Stringify(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case fmt.Stringer:
		return out.String()
	default:
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf("%v", out)
		}
		return string(b)
	}
}
