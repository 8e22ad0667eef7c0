package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestCallSuccess(t *testing.T) {
	reg, err := NewRegistry(addTool())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	out := Call(context.Background(), reg, &ai.ToolRequest{
		Name:  "add",
		Ref:   "call-1",
		Input: map[string]any{"a": float64(2), "b": float64(2)},
	})

	if out.IsError {
		t.Fatalf("Call() unexpected error output: %s", out.Content)
	}
	if out.ToolName != "add" || out.CallID != "call-1" {
		t.Errorf("Call() identity = %q/%q, want add/call-1", out.ToolName, out.CallID)
	}
	if out.Content != "4" {
		t.Errorf("Call() content = %q, want %q", out.Content, "4")
	}
	if out.Raw != 4 {
		t.Errorf("Call() raw = %v, want 4", out.Raw)
	}
}

func TestCallUnknownTool(t *testing.T) {
	reg, err := NewRegistry(addTool())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	out := Call(context.Background(), reg, &ai.ToolRequest{Name: "missing", Ref: "call-2"})

	if !out.IsError {
		t.Fatal("Call() with unknown tool should produce error output")
	}
	if !strings.Contains(out.Content, "missing") || !strings.Contains(out.Content, "add") {
		t.Errorf("Call() content = %q, want unknown name and available tools", out.Content)
	}
	if out.CallID != "call-2" {
		t.Errorf("Call() call id = %q, want call-2", out.CallID)
	}
}

func TestCallHandlerError(t *testing.T) {
	boom := New("boom", "fails", func(_ context.Context, _ struct{}) (string, error) {
		return "", errors.New("disk on fire")
	})
	reg, err := NewRegistry(boom)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	out := Call(context.Background(), reg, &ai.ToolRequest{Name: "boom", Ref: "call-3"})

	if !out.IsError {
		t.Fatal("Call() with failing handler should produce error output")
	}
	if !strings.Contains(out.Content, "disk on fire") {
		t.Errorf("Call() content = %q, want handler error text", out.Content)
	}
	if out.Raw != nil {
		t.Errorf("Call() raw = %v, want nil on failure", out.Raw)
	}
}

type stringered struct{}

func (stringered) String() string { return "custom" }

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string passthrough", "hello", "hello"},
		{"int", 4, "4"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"stringer", stringered{}, "custom"},
		{"struct to json", struct {
			N string `json:"n"`
		}{N: "x"}, `{"n":"x"}`},
		{"slice to json", []int{1, 2}, "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.in); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
