package knowledge

import (
	"context"

	"github.com/skein-ai/skein/internal/tools"
)

// ToolSearcher adapts a Store to the search tool's contract, flattening
// results into content/source/score triples.
type ToolSearcher struct {
	store *Store
}

// NewToolSearcher wraps store for use by tools.KnowledgeSearch.
func NewToolSearcher(store *Store) *ToolSearcher {
	return &ToolSearcher{store: store}
}

// Search implements tools.KnowledgeSearcher.
func (t *ToolSearcher) Search(ctx context.Context, query string, limit int) ([]tools.SearchResult, error) {
	results, err := t.store.Search(ctx, query, WithTopK(limit))
	if err != nil {
		return nil, err
	}
	out := make([]tools.SearchResult, 0, len(results))
	for _, r := range results {
		source := r.Document.Metadata["source"]
		if source == "" {
			source = r.Document.ID
		}
		out = append(out, tools.SearchResult{
			Content: r.Document.Content,
			Source:  source,
			Score:   float64(r.Similarity),
		})
	}
	return out, nil
}
