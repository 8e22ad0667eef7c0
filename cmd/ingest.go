package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skein-ai/skein/internal/app"
	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/loader"
)

var (
	ingestCrawl bool
	ingestDepth int
	ingestPages int
	ingestExts  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path|url]...",
	Short: "Load documents into the knowledge base",
	Long: `Ingest loads documents into the knowledge base so chat and ask
can retrieve them.

Each argument is a file, a directory (walked recursively), or an
http(s) URL. With --crawl, URLs are crawled: same-host links are
followed up to --depth levels and --pages pages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestCrawl, "crawl", false, "follow same-host links from URL arguments")
	ingestCmd.Flags().IntVar(&ingestDepth, "depth", 0, "crawl depth (default 2)")
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "crawl page limit (default 25)")
	ingestCmd.Flags().StringSliceVar(&ingestExts, "ext", nil, "file extensions to load (default built-in text types)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		var docs []knowledge.Document

		for _, arg := range args {
			loaded, err := loadTarget(ctx, a, arg)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", arg, err)
			}
			docs = append(docs, loaded...)
		}

		var stored int
		for _, doc := range docs {
			if err := a.Knowledge.Add(ctx, doc); err != nil {
				a.Logger.Warn("document not stored", "id", doc.ID, "error", err)
				continue
			}
			stored++
		}

		fmt.Printf("Ingested %d of %d documents\n", stored, len(docs))
		if stored < len(docs) {
			return fmt.Errorf("%d documents failed", len(docs)-stored)
		}
		return nil
	})
}

// loadTarget loads one argument: URL, directory, or single file.
func loadTarget(ctx context.Context, a *app.App, arg string) ([]knowledge.Document, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return loadURL(ctx, a, arg)
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}

	files := a.NewFileLoader()
	if len(ingestExts) > 0 {
		files = loader.NewFiles(ingestExts, a.Logger)
	}

	if info.IsDir() {
		return files.LoadDirectory(arg)
	}
	doc, err := files.LoadFile(arg)
	if err != nil {
		return nil, err
	}
	return []knowledge.Document{doc}, nil
}

func loadURL(ctx context.Context, a *app.App, rawURL string) ([]knowledge.Document, error) {
	web := a.NewWebLoader()

	if ingestCrawl {
		crawler := loader.NewCrawler(web, a.HTTPValidator, loader.CrawlConfig{
			MaxDepth: ingestDepth,
			MaxPages: ingestPages,
		}, a.Logger)
		return crawler.Crawl(rawURL)
	}

	doc, err := web.LoadURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return []knowledge.Document{doc}, nil
}
