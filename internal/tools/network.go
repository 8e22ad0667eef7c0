package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/skein-ai/skein/internal/security"
)

// FetchInput names the URL to retrieve.
type FetchInput struct {
	URL string `json:"url" jsonschema:"description=The http or https URL to fetch"`
}

// Fetch builds a URL-fetching tool. URLs are validated against SSRF
// (private ranges, metadata endpoints) and responses are size-capped.
func Fetch(httpVal *security.HTTP, logger *slog.Logger) Tool {
	return New("fetch_url", "Fetch the raw content of a public HTTP or HTTPS URL.",
		func(ctx context.Context, in FetchInput) (string, error) {
			if err := httpVal.ValidateURL(in.URL); err != nil {
				return "", fmt.Errorf("url validation failed: %w", err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
			if err != nil {
				return "", fmt.Errorf("building request: %w", err)
			}
			resp, err := httpVal.Client().Do(req)
			if err != nil {
				return "", fmt.Errorf("fetching url: %w", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, in.URL)
			}
			body, err := io.ReadAll(io.LimitReader(resp.Body, httpVal.MaxResponseSize()))
			if err != nil {
				return "", fmt.Errorf("reading response: %w", err)
			}
			logger.Debug("fetched url", "url", in.URL, "bytes", len(body))
			return string(body), nil
		})
}
