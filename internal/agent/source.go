package agent

import (
	"context"
	"fmt"

	"github.com/skein-ai/skein/internal/tools"
)

// ToolRetriever selects tools relevant to a free-text query. Used when
// the full tool set is too large to advertise on every call.
type ToolRetriever interface {
	Retrieve(ctx context.Context, query string) ([]tools.Tool, error)
}

// toolSource yields the active tool set for a task. Exactly one
// variant exists per worker: a fixed registry or a retriever queried
// with the task's input.
type toolSource interface {
	activeTools(ctx context.Context, task *Task) (*tools.Registry, error)
}

type staticSource struct {
	reg *tools.Registry
}

func (s staticSource) activeTools(context.Context, *Task) (*tools.Registry, error) {
	return s.reg, nil
}

type retrievedSource struct {
	retriever ToolRetriever
}

func (s retrievedSource) activeTools(ctx context.Context, task *Task) (*tools.Registry, error) {
	ts, err := s.retriever.Retrieve(ctx, task.Input)
	if err != nil {
		return nil, fmt.Errorf("retrieving tools: %w", err)
	}
	reg, err := tools.NewRegistry(ts...)
	if err != nil {
		return nil, fmt.Errorf("retrieved tool set: %w", err)
	}
	return reg, nil
}

// newToolSource selects the variant. Supplying both a static list and a
// retriever is a configuration error; supplying neither means the
// worker runs as pure chat with an empty tool set.
func newToolSource(static []tools.Tool, retriever ToolRetriever) (toolSource, error) {
	if len(static) > 0 && retriever != nil {
		return nil, fmt.Errorf("both a static tool list and a tool retriever configured; supply exactly one")
	}
	if retriever != nil {
		return retrievedSource{retriever: retriever}, nil
	}
	reg, err := tools.NewRegistry(static...)
	if err != nil {
		return nil, fmt.Errorf("static tool set: %w", err)
	}
	return staticSource{reg: reg}, nil
}
