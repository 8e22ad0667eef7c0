package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skein-ai/skein/internal/app"
	"github.com/skein-ai/skein/internal/memory"
)

var askRAG bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question",
	Long: `Ask sends a single question and prints the answer.

By default the full agent answers, using its tools (knowledge search,
file access, web fetch) as it sees fit. With --rag the question goes
through plain retrieval: top matching documents are fetched from the
knowledge base and the model answers strictly from them, with sources
listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askRAG, "rag", false, "answer strictly from the knowledge base")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		if askRAG {
			return askKnowledge(ctx, a, question)
		}
		return askAgent(ctx, a, question)
	})
}

func askAgent(ctx context.Context, a *app.App, question string) error {
	ag, err := a.NewAgent(memory.NewBuffer())
	if err != nil {
		return err
	}

	resp, err := ag.Chat(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(resp.Text())
	return nil
}

func askKnowledge(ctx context.Context, a *app.App, question string) error {
	engine, err := a.NewEngine()
	if err != nil {
		return err
	}

	answer, err := engine.Query(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Results) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, r := range answer.Results {
			source := r.Document.Metadata["source"]
			if source == "" {
				source = r.Document.ID
			}
			fmt.Printf("  %.2f  %s\n", r.Similarity, source)
		}
	}
	return nil
}
