// Package tools provides the tool layer of the agent system: the Tool
// interface, a registry for name-based lookup, and the dispatch helper
// that turns model tool requests into recorded outputs.
//
// Design principles:
//   - Type safety via generics: New[In, Out] gives handlers typed
//     signatures; type erasure happens once, at construction.
//   - Recoverable failures: malformed arguments and handler errors become
//     error-flagged Outputs the model can read, never panics.
//   - Framework boundary: tools are plain values; Register adapts a tool
//     to Genkit for schema advertisement, nothing else.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool is a callable capability advertised to the model.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description tells the model what the tool does and when to call it.
	Description() string

	// Execute runs the tool. input is either a parsed argument object
	// (map from JSON) or raw JSON text; both are converted to the
	// handler's typed input. Conversion failures return an error.
	Execute(ctx context.Context, input any) (any, error)

	// Register advertises the tool to Genkit so its name, description,
	// and parameter schema reach the model. The returned ai.Tool is used
	// as a tool ref on generate calls; execution still goes through
	// Execute, not through Genkit's internal tool loop.
	Register(g *genkit.Genkit) ai.Tool
}

// tool is the single Tool implementation. The typed handler is captured
// twice at construction: erased for Execute, typed for Register (Genkit
// derives the JSON schema from the In type parameter).
type tool struct {
	name        string
	description string
	execute     func(context.Context, any) (any, error)
	register    func(*genkit.Genkit) ai.Tool
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

func (t *tool) Execute(ctx context.Context, input any) (any, error) {
	return t.execute(ctx, input)
}

func (t *tool) Register(g *genkit.Genkit) ai.Tool {
	return t.register(g)
}

// New creates a tool from a typed handler. The input type's json and
// jsonschema struct tags define the parameter schema the model sees.
//
// Example:
//
//	clock := tools.New("current_time", "Returns the current date and time.",
//	    func(ctx context.Context, _ struct{}) (string, error) {
//	        return time.Now().Format(time.DateTime), nil
//	    })
func New[In, Out any](name, description string, fn func(context.Context, In) (Out, error)) Tool {
	return &tool{
		name:        name,
		description: description,
		execute: func(ctx context.Context, input any) (any, error) {
			in, err := convertInput[In](input)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
		register: func(g *genkit.Genkit) ai.Tool {
			return genkit.DefineTool(g, name, description,
				func(tc *ai.ToolContext, in In) (Out, error) {
					return fn(tc.Context, in)
				})
		},
	}
}

// convertInput turns a tool request payload into the handler's typed
// input. Accepts the typed value itself, raw JSON text, or any
// JSON-shaped value (map, slice) via a marshal round trip.
func convertInput[In any](input any) (In, error) {
	if typed, ok := input.(In); ok {
		return typed, nil
	}

	var raw []byte
	switch v := input.(type) {
	case nil:
		raw = []byte("{}")
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		// Model layers hand over parsed maps; re-encode to reach the
		// typed struct.
		b, err := json.Marshal(v)
		if err != nil {
			var zero In
			return zero, fmt.Errorf("encoding tool input: %w", err)
		}
		raw = b
	}

	var in In
	if err := json.Unmarshal(raw, &in); err != nil {
		var zero In
		return zero, fmt.Errorf("invalid tool arguments (want %T): %w", zero, err)
	}
	return in, nil
}
