package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/skein-ai/skein/internal/llm"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/memory"
)

// maxStepsPerTask is a hard ceiling on loop iterations, defending
// against a generator that keeps emitting successors.
const maxStepsPerTask = 64

// Agent owns a worker and the conversation memory shared across tasks.
// Each Chat call runs one task to completion: initialize, step until
// done, finalize. An Agent serializes its Chat calls through the
// per-task step guard; callers wanting parallel conversations create
// separate Agents.
type Agent struct {
	worker *Worker
	memory *memory.Buffer
	logger log.Logger
}

// New builds an Agent around worker. history may be nil to start a
// fresh conversation.
func New(worker *Worker, history *memory.Buffer, logger log.Logger) (*Agent, error) {
	if worker == nil {
		return nil, errors.New("agent: worker is required")
	}
	if logger == nil {
		return nil, errors.New("agent: logger is required")
	}
	if history == nil {
		history = memory.NewBuffer()
	}
	return &Agent{worker: worker, memory: history, logger: logger}, nil
}

// Memory exposes the persistent conversation history, for callers that
// persist it between runs.
func (a *Agent) Memory() *memory.Buffer {
	return a.memory
}

// Chat runs one full task for input and returns the final response.
func (a *Agent) Chat(ctx context.Context, input string) (*Response, error) {
	return a.run(ctx, input, nil)
}

// ChatStream is Chat with incremental delivery of model output. The
// callback fires for every step's chunks, including intermediate
// tool-calling steps.
func (a *Agent) ChatStream(ctx context.Context, input string, stream llm.StreamCallback) (*Response, error) {
	if stream == nil {
		return nil, errors.New("agent: stream callback is required")
	}
	return a.run(ctx, input, stream)
}

func (a *Agent) run(ctx context.Context, input string, stream llm.StreamCallback) (*Response, error) {
	task := NewTask(input, a.memory)
	step := a.worker.InitializeStep(task)

	a.logger.Debug("task started", "task", task.ID, "inputLength", len(input))

	var out StepOutput
	for i := 0; ; i++ {
		if i >= maxStepsPerTask {
			return nil, fmt.Errorf("task %s: exceeded %d steps", task.ID, maxStepsPerTask)
		}

		var err error
		if stream != nil {
			out, err = a.worker.StreamStep(ctx, step, task, stream)
		} else {
			out, err = a.worker.RunStep(ctx, step, task)
		}
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		if out.Done {
			break
		}
		if len(out.NextSteps) == 0 {
			return nil, fmt.Errorf("task %s: step not done but produced no successor", task.ID)
		}
		step = out.NextSteps[0]
	}

	a.worker.FinalizeTask(task)
	a.logger.Debug("task finished",
		"task", task.ID,
		"toolCalls", task.Scratch.FunctionCalls,
	)
	return out.Response, nil
}
