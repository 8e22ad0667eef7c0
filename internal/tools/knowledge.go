package tools

import (
	"context"
	"fmt"
	"strings"
)

// SearchResult is one hit from the knowledge base.
type SearchResult struct {
	Content string
	Source  string
	Score   float64
}

// KnowledgeSearcher is the slice of the knowledge store the search tool
// needs. *knowledge.Store satisfies it.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SearchInput carries the semantic search query.
type SearchInput struct {
	Query string `json:"query" jsonschema:"description=Natural language search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results (default 5)"`
}

// KnowledgeSearch builds a semantic search tool over the knowledge base.
func KnowledgeSearch(searcher KnowledgeSearcher) Tool {
	return New("search_knowledge", "Search the knowledge base for documents semantically related to a query.",
		func(ctx context.Context, in SearchInput) (string, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return "", fmt.Errorf("query must not be empty")
			}
			limit := in.Limit
			if limit <= 0 {
				limit = 5
			}
			results, err := searcher.Search(ctx, query, limit)
			if err != nil {
				return "", fmt.Errorf("searching knowledge base: %w", err)
			}
			if len(results) == 0 {
				return "no matching documents found", nil
			}
			var b strings.Builder
			for i, r := range results {
				if i > 0 {
					b.WriteString("\n---\n")
				}
				fmt.Fprintf(&b, "[%d] %s (score %.3f)\n%s", i+1, r.Source, r.Score, r.Content)
			}
			return b.String(), nil
		})
}
