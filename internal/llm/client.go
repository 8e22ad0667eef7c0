package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/tools"
)

// Config carries everything Client needs. Zero-value resilience fields
// fall back to defaults.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string
	Logger    log.Logger

	Retry       RetryConfig
	Breaker     BreakerConfig
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Client is the Genkit-backed Generator. Calls are rate limited,
// retried with exponential backoff, and guarded by a circuit breaker.
// Client is safe for concurrent use.
type Client struct {
	g         *genkit.Genkit
	modelName string
	logger    log.Logger

	retry   RetryConfig
	breaker *Breaker
	limiter *rate.Limiter
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialInterval == 0 {
		retry = DefaultRetryConfig()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		// Provider free tiers hover around 10 rpm; half that leaves
		// headroom for retries.
		limiter = rate.NewLimiter(rate.Every(12*time.Second), 3)
	}

	return &Client{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		logger:    cfg.Logger,
		retry:     retry,
		breaker:   NewBreaker(cfg.Breaker),
		limiter:   limiter,
	}, nil
}

// Generate runs one model call. Tool requests in the response are
// returned to the caller for dispatch; Genkit's own tool loop is
// disabled so the conversation state stays under caller control.
func (c *Client) Generate(ctx context.Context, req *Request) (*ai.ModelResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("generate: no messages")
	}

	// Genkit mutates message content in place during rendering, so a
	// shared history must not be handed over directly.
	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(copyMessages(req.Messages)...),
		ai.WithReturnToolRequests(true),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(c.toolRefs(req.Tools)...))
	}
	if req.ToolChoice != "" {
		opts = append(opts, ai.WithToolChoice(req.ToolChoice))
	}
	if req.Stream != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return req.Stream(ctx, chunk)
		}))
	}

	if err := c.breaker.Allow(); err != nil {
		return nil, fmt.Errorf("llm call rejected: %w", err)
	}

	resp, err := c.generateWithRetry(ctx, opts)
	if err != nil {
		c.breaker.Failure()
		return nil, err
	}
	c.breaker.Success()
	return resp, nil
}

// toolRefs resolves tools to their Genkit registrations, defining each
// tool at most once per Genkit instance.
func (c *Client) toolRefs(ts []tools.Tool) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(ts))
	for _, t := range ts {
		if existing := genkit.LookupTool(c.g, t.Name()); existing != nil {
			refs = append(refs, existing)
			continue
		}
		refs = append(refs, t.Register(c.g))
	}
	return refs
}

// copyMessages clones the slice and each message's content slice so the
// caller's history survives Genkit's in-place rendering.
func copyMessages(msgs []*ai.Message) []*ai.Message {
	out := make([]*ai.Message, len(msgs))
	for i, m := range msgs {
		if m == nil {
			continue
		}
		cp := *m
		cp.Content = make([]*ai.Part, len(m.Content))
		copy(cp.Content, m.Content)
		out[i] = &cp
	}
	return out
}
