package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skein-ai/skein/db"
	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/llm"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/mcp"
	"github.com/skein-ai/skein/internal/observability"
	"github.com/skein-ai/skein/internal/security"
	"github.com/skein-ai/skein/internal/session"
	"github.com/skein-ai/skein/internal/tools"
)

// Setup creates and initializes the application. On failure, everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing first: genkit's TracerProvider must carry the span
	// processor before any instrumented call runs.
	otelShutdown, err := observability.Setup(ctx, cfg.Otel, logger)
	if err != nil {
		return nil, err
	}
	a.otelShutdown = otelShutdown

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	client, err := llm.NewClient(llm.Config{
		Genkit:    g,
		ModelName: cfg.FullModelName(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	a.LLM = client

	store, err := knowledge.NewStore(pool, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Knowledge = store

	sessions, err := session.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = sessions

	if err := provideValidators(a); err != nil {
		return nil, err
	}
	if err := provideTools(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// provideGenkit initializes genkit with the configured model provider.
// Gemini (default) and OpenAI auto-register their models; Ollama needs
// explicit model and embedder registration.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Each plugin keys embedders differently.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideDBPool runs migrations and opens the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideValidators builds the security validators for tool access.
// File tools are confined to the configured workspace.
func provideValidators(a *App) error {
	workspace := a.Config.Workspace
	if workspace == "" {
		workspace = "."
	}
	pathVal, err := security.NewPath([]string{workspace}, nil)
	if err != nil {
		return fmt.Errorf("creating path validator: %w", err)
	}
	a.PathValidator = pathVal
	a.HTTPValidator = security.NewHTTP()
	return nil
}

// provideTools assembles the built-in tool set plus any configured MCP
// servers. A failing MCP server is logged and skipped; built-ins always
// load.
func provideTools(ctx context.Context, a *App) error {
	logger := a.Logger

	all := tools.FileTools(a.PathValidator, logger)
	all = append(all,
		tools.Clock(),
		tools.Fetch(a.HTTPValidator, logger),
		tools.KnowledgeSearch(knowledge.NewToolSearcher(a.Knowledge)),
	)

	for _, srvCfg := range a.Config.MCPServers {
		source, err := mcp.Connect(ctx, mcp.ServerConfig{
			Name:    srvCfg.Name,
			Command: srvCfg.Command,
			Args:    srvCfg.Args,
			Env:     srvCfg.Env,
		}, logger)
		if err != nil {
			logger.Warn("skipping mcp server", "name", srvCfg.Name, "error", err)
			continue
		}
		serverTools, err := source.Tools(ctx)
		if err != nil {
			logger.Warn("skipping mcp server", "name", srvCfg.Name, "error", err)
			_ = source.Close()
			continue
		}
		a.mcpClosers = append(a.mcpClosers, source.Close)
		all = append(all, serverTools...)
	}

	a.Tools = all
	logger.Info("tools assembled", "count", len(all))
	return nil
}
