package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/tools"
)

// ToolIndex ranks a tool set against free text by embedding each
// tool's name and description once and comparing cosine similarity at
// retrieval time. It satisfies the agent's tool retriever contract.
// Safe for concurrent use after construction.
type ToolIndex struct {
	embedder ai.Embedder
	tools    []tools.Tool
	topK     int
	logger   log.Logger

	once     sync.Once
	vectors  [][]float32
	buildErr error
}

// NewToolIndex builds an index over ts. topK bounds how many tools a
// retrieval returns; zero means 3.
func NewToolIndex(embedder ai.Embedder, ts []tools.Tool, topK int, logger log.Logger) (*ToolIndex, error) {
	if embedder == nil {
		return nil, errors.New("tool index: embedder is required")
	}
	if len(ts) == 0 {
		return nil, errors.New("tool index: at least one tool is required")
	}
	if logger == nil {
		return nil, errors.New("tool index: logger is required")
	}
	if topK <= 0 {
		topK = 3
	}
	return &ToolIndex{embedder: embedder, tools: ts, topK: topK, logger: logger}, nil
}

// Retrieve returns the tools most similar to query, best first. Tool
// description vectors are computed on first use and cached.
func (x *ToolIndex) Retrieve(ctx context.Context, query string) ([]tools.Tool, error) {
	x.once.Do(func() { x.buildErr = x.build(ctx) })
	if x.buildErr != nil {
		return nil, fmt.Errorf("building tool index: %w", x.buildErr)
	}

	qv, err := x.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	type scored struct {
		tool  tools.Tool
		score float64
	}
	ranked := make([]scored, len(x.tools))
	for i, t := range x.tools {
		ranked[i] = scored{tool: t, score: cosine(qv, x.vectors[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(x.topK, len(ranked))
	out := make([]tools.Tool, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.tool)
	}

	x.logger.Debug("retrieved tools", "query", query, "selected", len(out))
	return out, nil
}

func (x *ToolIndex) build(ctx context.Context) error {
	x.vectors = make([][]float32, len(x.tools))
	for i, t := range x.tools {
		v, err := x.embed(ctx, t.Name()+": "+t.Description())
		if err != nil {
			return fmt.Errorf("tool %q: %w", t.Name(), err)
		}
		x.vectors[i] = v
	}
	return nil
}

func (x *ToolIndex) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := x.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Embeddings[0].Embedding, nil
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
