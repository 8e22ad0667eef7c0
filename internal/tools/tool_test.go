package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type addInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

func addTool() Tool {
	return New("add", "Add two integers.", func(_ context.Context, in addInput) (int, error) {
		return in.A + in.B, nil
	})
}

func TestToolExecute(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"typed struct", addInput{A: 2, B: 3}, 5},
		{"json string", `{"a":2,"b":2}`, 4},
		{"raw message", json.RawMessage(`{"a":1,"b":1}`), 2},
		{"byte slice", []byte(`{"a":10,"b":-3}`), 7},
		{"parsed map", map[string]any{"a": float64(4), "b": float64(4)}, 8},
		{"nil input uses zero value", nil, 0},
	}

	tool := addTool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tool.Execute(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolExecuteMalformedInput(t *testing.T) {
	tool := addTool()
	_, err := tool.Execute(context.Background(), `{"a": not json`)
	if err == nil {
		t.Fatal("Execute() with malformed JSON should fail")
	}
	if !strings.Contains(err.Error(), "invalid tool arguments") {
		t.Errorf("error = %q, want mention of invalid tool arguments", err)
	}
}

func TestToolMetadata(t *testing.T) {
	tool := New("echo", "Echo input back.", func(_ context.Context, in struct {
		Text string `json:"text"`
	}) (string, error) {
		return in.Text, nil
	})

	if got := tool.Name(); got != "echo" {
		t.Errorf("Name() = %q, want %q", got, "echo")
	}
	if got := tool.Description(); got != "Echo input back." {
		t.Errorf("Description() = %q, want %q", got, "Echo input back.")
	}
}

func TestToolExecutePropagatesHandlerError(t *testing.T) {
	tool := New("boom", "Always fails.", func(_ context.Context, _ addInput) (string, error) {
		return "", context.DeadlineExceeded
	})
	_, err := tool.Execute(context.Background(), addInput{})
	if err == nil {
		t.Fatal("Execute() should propagate handler error")
	}
}
