// Package rag answers questions by retrieving relevant documents and
// handing them to the model for synthesis, and ranks tools against a
// query for retrieval-based tool selection.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/llm"
	"github.com/skein-ai/skein/internal/log"
)

const synthesisSystem = `Answer the question using only the provided context documents.
Cite the source of each fact you use. If the context does not contain
the answer, say so instead of guessing.`

// Searcher is the slice of the knowledge store the engine needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Answer is a synthesized reply with the documents it drew from.
type Answer struct {
	Text    string
	Results []knowledge.Result
}

// Engine is a retrieve-then-synthesize query engine.
type Engine struct {
	store  Searcher
	llm    llm.Generator
	logger log.Logger
	topK   int
}

// EngineConfig assembles an Engine.
type EngineConfig struct {
	Store     Searcher
	Generator llm.Generator
	Logger    log.Logger

	// TopK documents retrieved per query. Zero means 5.
	TopK int
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("rag engine: store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("rag engine: generator is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("rag engine: logger is required")
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Engine{store: cfg.Store, llm: cfg.Generator, logger: cfg.Logger, topK: topK}, nil
}

// Query retrieves the most relevant documents for question and asks the
// model to answer from them.
func (e *Engine) Query(ctx context.Context, question string, opts ...knowledge.SearchOption) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question must not be empty")
	}

	searchOpts := append([]knowledge.SearchOption{knowledge.WithTopK(e.topK)}, opts...)
	results, err := e.store.Search(ctx, question, searchOpts...)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	e.logger.Debug("retrieved context", "question", question, "documents", len(results))

	if len(results) == 0 {
		return &Answer{Text: "No relevant documents found in the knowledge base."}, nil
	}

	resp, err := e.llm.Generate(ctx, &llm.Request{
		System: synthesisSystem,
		Messages: []*ai.Message{
			ai.NewUserMessage(ai.NewTextPart(buildPrompt(question, results))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	return &Answer{Text: resp.Message.Text(), Results: results}, nil
}

// buildPrompt lays out numbered context blocks followed by the question.
func buildPrompt(question string, results []knowledge.Result) string {
	var b strings.Builder
	b.WriteString("Context documents:\n\n")
	for i, r := range results {
		source := r.Document.Metadata["source"]
		if source == "" {
			source = r.Document.ID
		}
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, source, r.Document.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
