package loader

import (
	"strings"
	"testing"

	"github.com/skein-ai/skein/internal/log"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Vector Search Explained</title>
  <meta name="description" content="A short tour of approximate nearest neighbor search.">
  <link rel="canonical" href="https://example.com/articles/vector-search">
</head>
<body>
  <nav><a href="/">home</a> <a href="/about">about</a></nav>
  <article>
    <h1>Vector Search Explained</h1>
    <p>Vector search finds documents by comparing embeddings rather than keywords.
    The closer two vectors are in the embedding space, the more similar the
    underlying texts tend to be.</p>
    <p>Most production systems use approximate indexes such as HNSW to keep query
    latency low as the corpus grows. Exact scans are simpler but stop scaling
    past a few hundred thousand documents.</p>
  </article>
  <footer>copyright notice</footer>
</body>
</html>`

func TestWebParse(t *testing.T) {
	w := NewWeb(nil, log.NewNop())

	doc, err := w.Parse("https://example.com/articles/vector-search", []byte(articleHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(doc.Content, "comparing embeddings") {
		t.Errorf("content missing article body: %q", doc.Content)
	}
	if doc.Metadata["source_type"] != "web" {
		t.Errorf("source_type = %q", doc.Metadata["source_type"])
	}
	if doc.Metadata["source"] != "https://example.com/articles/vector-search" {
		t.Errorf("source = %q", doc.Metadata["source"])
	}
	if got := doc.Metadata["title"]; !strings.Contains(got, "Vector Search") {
		t.Errorf("title = %q", got)
	}
	if got := doc.Metadata["description"]; !strings.Contains(got, "nearest neighbor") {
		t.Errorf("description = %q", got)
	}
	if got := doc.Metadata["canonical"]; got != "https://example.com/articles/vector-search" {
		t.Errorf("canonical = %q", got)
	}
	if !strings.HasPrefix(doc.ID, "web-") {
		t.Errorf("id = %q", doc.ID)
	}
}

func TestWebParseFallback(t *testing.T) {
	// Minimal page readability cannot extract an article from; the plain
	// text walker should still recover the visible content.
	page := `<html><head><title>Status</title><script>var x = 1;</script></head>
<body><p>All systems operational.</p><style>p{color:red}</style></body></html>`

	w := NewWeb(nil, log.NewNop())
	doc, err := w.Parse("https://example.com/status", []byte(page))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(doc.Content, "All systems operational.") {
		t.Errorf("content = %q", doc.Content)
	}
	if strings.Contains(doc.Content, "var x") || strings.Contains(doc.Content, "color:red") {
		t.Errorf("script/style leaked into content: %q", doc.Content)
	}
}

func TestWebParseErrors(t *testing.T) {
	w := NewWeb(nil, log.NewNop())

	if _, err := w.Parse("://bad", []byte(articleHTML)); err == nil {
		t.Error("Parse(invalid url) should fail")
	}
	if _, err := w.Parse("https://example.com/empty", []byte("<html><body></body></html>")); err == nil {
		t.Error("Parse(empty page) should fail")
	}
}

func TestWebParseStableID(t *testing.T) {
	w := NewWeb(nil, log.NewNop())

	a, err := w.Parse("https://example.com/a", []byte(articleHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	b, err := w.Parse("https://example.com/a", []byte(articleHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("id not stable for same URL: %q vs %q", a.ID, b.ID)
	}
	c, err := w.Parse("https://example.com/b", []byte(articleHTML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.ID == a.ID {
		t.Error("different URLs produced the same id")
	}
}
