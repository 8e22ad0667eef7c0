package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/security"
)

// Web loads single pages into documents: fetch, extract the readable
// article, stamp page metadata.
type Web struct {
	httpVal *security.HTTP
	logger  log.Logger
}

// NewWeb builds a web page loader. Every fetch goes through the HTTP
// validator, so private and metadata addresses are unreachable.
func NewWeb(httpVal *security.HTTP, logger log.Logger) *Web {
	return &Web{httpVal: httpVal, logger: logger}
}

// LoadURL fetches one page and extracts its readable content.
func (w *Web) LoadURL(ctx context.Context, rawURL string) (knowledge.Document, error) {
	if err := w.httpVal.ValidateURL(rawURL); err != nil {
		return knowledge.Document{}, fmt.Errorf("url validation failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := w.httpVal.Client().Do(req)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return knowledge.Document{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, w.httpVal.MaxResponseSize()))
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	return w.Parse(rawURL, body)
}

// Parse extracts a document from already-fetched page bytes.
func (w *Web) Parse(rawURL string, body []byte) (knowledge.Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	meta := extractMeta(body)

	content, title := "", meta["title"]
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		content = strings.TrimSpace(article.TextContent)
		if article.Title != "" {
			title = article.Title
		}
	} else {
		// Not an article-shaped page; fall back to bare text.
		content = strings.TrimSpace(pageText(body))
		if title == "" {
			title = pageTitle(body)
		}
	}
	if content == "" {
		return knowledge.Document{}, fmt.Errorf("no readable content at %s", rawURL)
	}

	metadata := map[string]string{
		"source_type": "web",
		"source":      rawURL,
		"title":       title,
		"fetched_at":  time.Now().Format(time.RFC3339),
	}
	if d := meta["description"]; d != "" {
		metadata["description"] = d
	}
	if c := meta["canonical"]; c != "" {
		metadata["canonical"] = c
	}

	w.logger.Debug("loaded page", "url", rawURL, "title", title, "contentLength", len(content))
	return knowledge.Document{
		ID:        urlDocID(rawURL),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}, nil
}

// extractMeta pulls title, meta description, and canonical link.
func extractMeta(body []byte) map[string]string {
	meta := map[string]string{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return meta
	}
	meta["title"] = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta["description"] = strings.TrimSpace(desc)
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		meta["canonical"] = strings.TrimSpace(canonical)
	}
	return meta
}

// pageText flattens all text nodes, skipping script and style.
func pageText(body []byte) string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

func pageTitle(body []byte) string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return title
}

func urlDocID(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return "web-" + hex.EncodeToString(hash[:16])
}
