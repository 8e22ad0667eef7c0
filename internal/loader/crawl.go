package loader

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/security"
)

// CrawlConfig bounds a site crawl.
type CrawlConfig struct {
	// MaxDepth limits link-following depth from the start page.
	// Zero means 2.
	MaxDepth int

	// MaxPages caps how many pages are loaded. Zero means 25.
	MaxPages int

	// Delay spaces out requests to the same host. Zero means 500ms.
	Delay time.Duration
}

// Crawler walks one site breadth-first and loads every page it visits,
// staying on the start URL's host.
type Crawler struct {
	web     *Web
	httpVal *security.HTTP
	cfg     CrawlConfig
	logger  log.Logger
}

// NewCrawler builds a crawler feeding pages through web.
func NewCrawler(web *Web, httpVal *security.HTTP, cfg CrawlConfig, logger log.Logger) *Crawler {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 25
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	return &Crawler{web: web, httpVal: httpVal, cfg: cfg, logger: logger}
}

// Crawl visits startURL and same-host pages linked from it, returning
// a document per readable page. Pages that fail to parse are logged
// and skipped.
func (c *Crawler) Crawl(startURL string) ([]knowledge.Document, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start url: %w", err)
	}
	if err := c.httpVal.ValidateURL(startURL); err != nil {
		return nil, fmt.Errorf("start url validation failed: %w", err)
	}

	var (
		mu   sync.Mutex
		docs []knowledge.Document
	)

	collector := colly.NewCollector(
		colly.AllowedDomains(start.Hostname()),
		colly.MaxDepth(c.cfg.MaxDepth),
	)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring crawl limits: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		mu.Lock()
		full := len(docs) >= c.cfg.MaxPages
		mu.Unlock()
		if full {
			r.Abort()
			return
		}
		if err := c.httpVal.ValidateURL(r.URL.String()); err != nil {
			c.logger.Debug("skipping unsafe url", "url", r.URL.String(), "error", err)
			r.Abort()
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		_ = e.Request.Visit(e.Attr("href"))
	})

	collector.OnResponse(func(r *colly.Response) {
		doc, parseErr := c.web.Parse(r.Request.URL.String(), r.Body)
		if parseErr != nil {
			c.logger.Debug("skipping page", "url", r.Request.URL.String(), "reason", parseErr)
			return
		}
		mu.Lock()
		if len(docs) < c.cfg.MaxPages {
			docs = append(docs, doc)
		}
		mu.Unlock()
	})

	if err := collector.Visit(startURL); err != nil {
		return nil, fmt.Errorf("crawling %s: %w", startURL, err)
	}
	collector.Wait()

	if len(docs) == 0 {
		return nil, errors.New("crawl produced no readable pages")
	}
	c.logger.Info("crawl finished", "start", startURL, "pages", len(docs))
	return docs, nil
}
