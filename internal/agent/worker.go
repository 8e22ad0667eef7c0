package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/skein-ai/skein/internal/llm"
	"github.com/skein-ai/skein/internal/log"
	"github.com/skein-ai/skein/internal/memory"
	"github.com/skein-ai/skein/internal/tools"
)

// ErrStepInFlight is returned when a second step is started on a task
// whose previous step has not finished.
var ErrStepInFlight = errors.New("task already has a step in flight")

// DefaultMaxFunctionCalls bounds tool invocations per task when the
// config leaves the limit unset.
const DefaultMaxFunctionCalls = 10

// WorkerConfig assembles a Worker. Tools and Retriever are mutually
// exclusive; setting both fails construction. Leaving both unset runs
// the worker as pure chat.
type WorkerConfig struct {
	Generator llm.Generator
	Logger    log.Logger

	// Tools is a fixed tool set advertised on every step.
	Tools []tools.Tool

	// Retriever selects tools per task from the task's input text.
	Retriever ToolRetriever

	// System is the instruction prefix for every model call.
	System string

	// MaxFunctionCalls caps completed tool invocations per task.
	// Zero means DefaultMaxFunctionCalls.
	MaxFunctionCalls int

	// ToolChoice overrides the provider's tool-use policy. Empty means
	// the provider default ("auto").
	ToolChoice ai.ToolChoice
}

// Worker runs the step state machine: build the model request from
// task memory and tool schemas, dispatch any requested tool calls, and
// decide whether the task continues. A Worker is stateless across
// tasks and safe for concurrent use on distinct tasks.
type Worker struct {
	llm      llm.Generator
	source   toolSource
	system   string
	maxCalls int
	choice   ai.ToolChoice
	logger   log.Logger
}

// NewWorker validates cfg and builds a Worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Generator == nil {
		return nil, errors.New("worker config: generator is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("worker config: logger is required")
	}
	source, err := newToolSource(cfg.Tools, cfg.Retriever)
	if err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	maxCalls := cfg.MaxFunctionCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxFunctionCalls
	}
	return &Worker{
		llm:      cfg.Generator,
		source:   source,
		system:   cfg.System,
		maxCalls: maxCalls,
		choice:   cfg.ToolChoice,
		logger:   cfg.Logger,
	}, nil
}

// InitializeStep resets the task's scratch state and returns the first
// step, carrying the task's original input.
func (w *Worker) InitializeStep(task *Task) Step {
	task.Scratch = Scratch{Memory: memory.NewBuffer()}
	return Step{
		TaskID: task.ID,
		ID:     uuid.NewString(),
		Input:  task.Input,
	}
}

// RunStep executes one step synchronously.
func (w *Worker) RunStep(ctx context.Context, step Step, task *Task) (StepOutput, error) {
	return w.runStep(ctx, step, task, nil)
}

// StreamStep executes one step with incremental response delivery.
func (w *Worker) StreamStep(ctx context.Context, step Step, task *Task, stream llm.StreamCallback) (StepOutput, error) {
	if stream == nil {
		return StepOutput{}, errors.New("stream step: callback is required")
	}
	return w.runStep(ctx, step, task, stream)
}

func (w *Worker) runStep(ctx context.Context, step Step, task *Task, stream llm.StreamCallback) (StepOutput, error) {
	if !task.stepInFlight.CompareAndSwap(false, true) {
		return StepOutput{}, fmt.Errorf("task %s: %w", task.ID, ErrStepInFlight)
	}
	defer task.stepInFlight.Store(false)

	active, err := w.source.activeTools(ctx, task)
	if err != nil {
		return StepOutput{}, fmt.Errorf("resolving tool set: %w", err)
	}

	// Fresh input arrives only on a task's first step.
	if step.Input != "" {
		task.Scratch.Memory.Add(ai.NewUserMessage(ai.NewTextPart(step.Input)))
	}

	req := &llm.Request{
		System:     w.system,
		Messages:   w.requestMessages(task),
		Tools:      active.All(),
		ToolChoice: w.choice,
		Stream:     stream,
	}

	resp, err := w.llm.Generate(ctx, req)
	if err != nil {
		return StepOutput{}, fmt.Errorf("model call: %w", err)
	}
	task.Scratch.Memory.Add(resp.Message)

	out := StepOutput{
		Response: &Response{Message: resp.Message},
		Step:     step,
	}

	calls := resp.ToolRequests()

	// Continue only while the call bound has room and the model asked
	// for tools. The bound is checked here at the step boundary; a
	// batch that starts always finishes, so counts can overrun the
	// bound by at most one batch.
	if len(calls) == 0 || task.Scratch.FunctionCalls >= w.maxCalls {
		if len(calls) > 0 {
			w.logger.Warn("function call bound reached, terminating task",
				"task", task.ID,
				"calls", task.Scratch.FunctionCalls,
				"pending", len(calls),
			)
		}
		out.Done = true
		out.Response.Sources = slices.Clone(task.Scratch.Sources)
		return out, nil
	}

	for _, call := range calls {
		result := tools.Call(ctx, active, call)
		task.Scratch.Sources = append(task.Scratch.Sources, result)
		task.Scratch.FunctionCalls++
		task.Scratch.Memory.Add(toolResultMessage(result))

		w.logger.Debug("tool call completed",
			"task", task.ID,
			"tool", result.ToolName,
			"error", result.IsError,
			"calls", task.Scratch.FunctionCalls,
		)
	}

	out.Response.Sources = slices.Clone(task.Scratch.Sources)
	out.NextSteps = []Step{{TaskID: task.ID, ID: uuid.NewString()}}
	return out, nil
}

// FinalizeTask merges the task's scratch memory into persistent memory
// and clears the scratch. Safe to call more than once; later calls
// append nothing.
func (w *Worker) FinalizeTask(task *Task) {
	task.Memory.AddAll(task.Scratch.Memory.Messages())
	task.Scratch.Memory.Reset()
}

// requestMessages concatenates persistent then scratch memory, oldest
// first.
func (w *Worker) requestMessages(task *Task) []*ai.Message {
	msgs := task.Memory.Messages()
	return append(msgs, task.Scratch.Memory.Messages()...)
}

// toolResultMessage wraps one tool output as a tool-role message, with
// the originating call id carried for correlation.
func toolResultMessage(out tools.Output) *ai.Message {
	return &ai.Message{
		Role: ai.RoleTool,
		Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   out.ToolName,
				Ref:    out.CallID,
				Output: out.Content,
			}),
		},
	}
}
