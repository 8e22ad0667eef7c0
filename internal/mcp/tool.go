package mcp

import (
	"context"
	"encoding/json"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// serverTool adapts one remote MCP tool to the agent's tool interface.
// Unlike locally defined tools, the input schema comes from the server
// at list time rather than from a Go struct type.
type serverTool struct {
	source      *Source
	remoteName  string
	name        string
	description string
	schema      any
}

func (t *serverTool) Name() string        { return t.name }
func (t *serverTool) Description() string { return t.description }

func (t *serverTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := toArguments(input)
	if err != nil {
		return nil, err
	}
	return t.source.call(ctx, t.remoteName, args)
}

func (t *serverTool) Register(g *genkit.Genkit) ai.Tool {
	return genkit.DefineToolWithInputSchema(g, t.name, t.description, schemaMap(t.schema),
		func(tc *ai.ToolContext, input any) (any, error) {
			return t.Execute(tc.Context, input)
		})
}

// schemaMap converts a listed tool schema into the map form genkit
// advertises. Listed schemas usually arrive as already-decoded JSON
// objects; typed schema values are round-tripped through JSON. A nil or
// unconvertible schema degrades to an unconstrained object schema.
func schemaMap(schema any) map[string]any {
	if m, ok := schema.(map[string]any); ok && len(m) > 0 {
		return m
	}
	if schema != nil {
		data, err := json.Marshal(schema)
		if err == nil {
			var m map[string]any
			if err := json.Unmarshal(data, &m); err == nil && len(m) > 0 {
				return m
			}
		}
	}
	return map[string]any{"type": "object"}
}
