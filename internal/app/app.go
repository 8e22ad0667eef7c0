// Package app assembles the application: genkit with the configured
// model provider, the database pool, knowledge and session stores, the
// tool set, and the agent on top of them. Entry points (CLI, TUI) call
// Setup once and work against the returned App.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skein-ai/skein/internal/agent"
	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/llm"
	"github.com/skein-ai/skein/internal/loader"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/memory"
	"github.com/skein-ai/skein/internal/rag"
	"github.com/skein-ai/skein/internal/security"
	"github.com/skein-ai/skein/internal/session"
	"github.com/skein-ai/skein/internal/tools"
)

// App is the application container. Fields are initialized by Setup
// and released by Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pool     *pgxpool.Pool

	LLM       *llm.Client
	Knowledge *knowledge.Store
	Sessions  *session.Store
	Tools     []tools.Tool

	PathValidator *security.Path
	HTTPValidator *security.HTTP

	otelShutdown func(context.Context) error
	mcpClosers   []func() error
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	for _, closeFn := range a.mcpClosers {
		if err := closeFn(); err != nil {
			a.Logger.Warn("closing mcp source", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
		}
	}
	return nil
}

// NewAgent builds a conversation agent over the app's model client and
// tool set. history carries messages from a resumed session; nil starts
// fresh.
func (a *App) NewAgent(history *memory.Buffer) (*agent.Agent, error) {
	worker, err := agent.NewWorker(agent.WorkerConfig{
		Generator:        a.LLM,
		Logger:           a.Logger,
		Tools:            a.Tools,
		System:           a.Config.SystemPrompt,
		MaxFunctionCalls: a.Config.MaxFunctionCalls,
	})
	if err != nil {
		return nil, err
	}
	return agent.New(worker, history, a.Logger)
}

// NewRetrievalAgent builds an agent whose tools are selected per task
// by semantic similarity over the full tool set.
func (a *App) NewRetrievalAgent(history *memory.Buffer, topK int) (*agent.Agent, error) {
	index, err := rag.NewToolIndex(a.Embedder, a.Tools, topK, a.Logger)
	if err != nil {
		return nil, err
	}
	worker, err := agent.NewWorker(agent.WorkerConfig{
		Generator:        a.LLM,
		Logger:           a.Logger,
		Retriever:        index,
		System:           a.Config.SystemPrompt,
		MaxFunctionCalls: a.Config.MaxFunctionCalls,
	})
	if err != nil {
		return nil, err
	}
	return agent.New(worker, history, a.Logger)
}

// NewEngine builds the retrieval-augmented answer engine.
func (a *App) NewEngine() (*rag.Engine, error) {
	return rag.NewEngine(rag.EngineConfig{
		Store:     a.Knowledge,
		Generator: a.LLM,
		Logger:    a.Logger,
		TopK:      a.Config.RAGTopK,
	})
}

// NewFileLoader builds a document loader for local files.
func (a *App) NewFileLoader() *loader.Files {
	return loader.NewFiles(nil, a.Logger)
}

// NewWebLoader builds a document loader for web pages.
func (a *App) NewWebLoader() *loader.Web {
	return loader.NewWeb(a.HTTPValidator, a.Logger)
}
