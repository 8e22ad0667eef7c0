package rag

import (
	"context"
	"math"
	"testing"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/testutil"
	"github.com/skein-ai/skein/internal/tools"
)

func dummyTool(name, description string) tools.Tool {
	return tools.New(name, description, func(_ context.Context, _ struct{}) (string, error) {
		return name, nil
	})
}

func TestToolIndexRetrieve(t *testing.T) {
	embedder := testutil.NewMockEmbedder(4)
	// Pin vectors so similarity ordering is exact: the query aligns
	// with the weather tool, is orthogonal to search, opposite to time.
	embedder.SetVector("weather: Get the weather forecast.", []float32{1, 0, 0, 0})
	embedder.SetVector("search: Search the knowledge base.", []float32{0, 1, 0, 0})
	embedder.SetVector("time: Get the current time.", []float32{-1, 0, 0, 0})
	embedder.SetVector("what is the weather like?", []float32{1, 0, 0, 0})

	idx, err := NewToolIndex(embedder, []tools.Tool{
		dummyTool("weather", "Get the weather forecast."),
		dummyTool("search", "Search the knowledge base."),
		dummyTool("time", "Get the current time."),
	}, 2, log.NewNop())
	if err != nil {
		t.Fatalf("NewToolIndex() error = %v", err)
	}

	got, err := idx.Retrieve(context.Background(), "what is the weather like?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve() = %d tools, want 2", len(got))
	}
	if got[0].Name() != "weather" {
		t.Errorf("top tool = %q, want weather", got[0].Name())
	}

	// Description vectors are embedded once, then reused: 3 tools + 1
	// query, plus 1 query for a second retrieval.
	if _, err := idx.Retrieve(context.Background(), "what is the weather like?"); err != nil {
		t.Fatalf("Retrieve(2) error = %v", err)
	}
	if calls := embedder.Calls(); calls != 5 {
		t.Errorf("embedder calls = %d, want 5 (index built once)", calls)
	}
}

func TestNewToolIndexValidation(t *testing.T) {
	if _, err := NewToolIndex(nil, []tools.Tool{dummyTool("a", "d")}, 1, log.NewNop()); err == nil {
		t.Error("nil embedder should fail")
	}
	if _, err := NewToolIndex(testutil.NewMockEmbedder(4), nil, 1, log.NewNop()); err == nil {
		t.Error("empty tool set should fail")
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}
