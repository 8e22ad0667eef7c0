package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skein-ai/skein/internal/log"
)

type echoInput struct {
	Text string `json:"text" jsonschema:"the text to echo back"`
}

type failInput struct {
	Reason string `json:"reason"`
}

// connectTestSource runs an in-process MCP server with an echo tool and
// a failing tool, and returns a Source connected to it over in-memory
// transports.
func connectTestSource(t *testing.T) *Source {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "test-server",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echoes the input text back.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "echo: " + in.Text}},
		}, nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "always_fails",
		Description: "Reports a tool-level error.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in failInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "broken: " + in.Reason}},
			IsError: true,
		}, nil, nil
	})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server.Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	source, err := connectSource(ctx, "test", clientTransport, log.NewNop())
	if err != nil {
		t.Fatalf("connectSource() error = %v", err)
	}
	t.Cleanup(func() { _ = source.Close() })

	return source
}

func TestSourceTools(t *testing.T) {
	source := connectTestSource(t)

	listed, err := source.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("len(tools) = %d, want 2", len(listed))
	}

	byName := map[string]bool{}
	for _, tool := range listed {
		byName[tool.Name()] = true
	}
	// Server-prefixed names keep multiple sources collision-free.
	if !byName["test_echo"] || !byName["test_always_fails"] {
		t.Errorf("tool names = %v", byName)
	}

	for _, tool := range listed {
		if tool.Name() == "test_echo" && !strings.Contains(tool.Description(), "Echoes") {
			t.Errorf("echo description = %q", tool.Description())
		}
	}
}

func TestServerToolExecute(t *testing.T) {
	source := connectTestSource(t)
	ctx := context.Background()

	listed, err := source.Tools(ctx)
	if err != nil {
		t.Fatalf("Tools() error = %v", err)
	}
	var echo, fails interface {
		Execute(context.Context, any) (any, error)
	}
	for _, tool := range listed {
		switch tool.Name() {
		case "test_echo":
			echo = tool
		case "test_always_fails":
			fails = tool
		}
	}

	t.Run("map arguments", func(t *testing.T) {
		out, err := echo.Execute(ctx, map[string]any{"text": "hello"})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if out != "echo: hello" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("raw json arguments", func(t *testing.T) {
		out, err := echo.Execute(ctx, json.RawMessage(`{"text":"raw"}`))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if out != "echo: raw" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("server error surfaces as error", func(t *testing.T) {
		_, err := fails.Execute(ctx, map[string]any{"reason": "disk full"})
		if err == nil {
			t.Fatal("Execute() should fail")
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("error = %v, want server text included", err)
		}
	})

	t.Run("malformed arguments", func(t *testing.T) {
		if _, err := echo.Execute(ctx, "{not json"); err == nil {
			t.Error("Execute(malformed) should fail")
		}
	})
}

func TestToArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    map[string]any
		wantErr bool
	}{
		{name: "nil", input: nil, want: map[string]any{}},
		{name: "empty string", input: "  ", want: map[string]any{}},
		{name: "map passthrough", input: map[string]any{"k": "v"}, want: map[string]any{"k": "v"}},
		{name: "json string", input: `{"k":"v"}`, want: map[string]any{"k": "v"}},
		{name: "struct", input: echoInput{Text: "x"}, want: map[string]any{"text": "x"}},
		{name: "bad json", input: "{", wantErr: true},
		{name: "non-object json", input: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toArguments(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("toArguments() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("toArguments() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestSchemaMap(t *testing.T) {
	tests := []struct {
		name   string
		schema any
		want   map[string]any
	}{
		{
			name:   "decoded json object passes through",
			schema: map[string]any{"type": "object", "required": []any{"text"}},
			want:   map[string]any{"type": "object", "required": []any{"text"}},
		},
		{
			name:   "nil degrades to open object",
			schema: nil,
			want:   map[string]any{"type": "object"},
		},
		{
			name:   "empty map degrades to open object",
			schema: map[string]any{},
			want:   map[string]any{"type": "object"},
		},
		{
			name: "typed schema value round-trips through json",
			schema: struct {
				Type string `json:"type"`
			}{Type: "object"},
			want: map[string]any{"type": "object"},
		},
		{
			name:   "unmarshalable value degrades to open object",
			schema: func() {},
			want:   map[string]any{"type": "object"},
		},
		{
			name:   "non-object json degrades to open object",
			schema: "just a string",
			want:   map[string]any{"type": "object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schemaMap(tt.schema)
			if len(got) != len(tt.want) {
				t.Fatalf("schemaMap() = %v, want %v", got, tt.want)
			}
			if got["type"] != tt.want["type"] {
				t.Errorf("schemaMap()[type] = %v, want %v", got["type"], tt.want["type"])
			}
		})
	}
}

func TestListedToolSchemas(t *testing.T) {
	source := connectTestSource(t)

	listed, err := source.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools() error = %v", err)
	}

	// Whatever shape the SDK lists schemas in, every wrapped tool must
	// yield an advertisable object schema.
	for _, tool := range listed {
		st, ok := tool.(*serverTool)
		if !ok {
			t.Fatalf("tool %s is %T, want *serverTool", tool.Name(), tool)
		}
		m := schemaMap(st.schema)
		if m == nil {
			t.Fatalf("schemaMap(%s) = nil", tool.Name())
		}
		if _, err := json.Marshal(m); err != nil {
			t.Errorf("schema for %s not marshalable: %v", tool.Name(), err)
		}
	}
}

func TestConnectValidation(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNop()

	if _, err := Connect(ctx, ServerConfig{Command: "server"}, logger); err == nil {
		t.Error("Connect without name should fail")
	}
	if _, err := Connect(ctx, ServerConfig{Name: "srv"}, logger); err == nil {
		t.Error("Connect without command should fail")
	}
	if _, err := Connect(ctx, ServerConfig{Name: "srv", Command: "server"}, nil); err == nil {
		t.Error("Connect without logger should fail")
	}
}
