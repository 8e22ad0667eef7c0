// Package agent implements the step-wise task execution loop: a Worker
// interleaves model calls with tool dispatch, accumulating conversation
// state on a Task until the model stops requesting tools, and an Agent
// façade drives the loop end to end for each user turn.
package agent

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/skein-ai/skein/internal/memory"
	"github.com/skein-ai/skein/internal/tools"
)

// Scratch is a task's per-turn working state. It is reset when a task's
// first step is initialized and its memory is merged into the task's
// persistent memory at finalization.
type Scratch struct {
	// Memory accumulates this turn's messages: user input, model
	// replies, tool results.
	Memory *memory.Buffer

	// Sources records every tool invocation made during the turn,
	// successes and failures alike. Append-only.
	Sources []tools.Output

	// FunctionCalls counts completed tool invocations, checked against
	// the worker's bound at each step boundary.
	FunctionCalls int
}

// Task is one user-turn-to-final-response unit of execution. Memory is
// the conversation history carried across tasks; Scratch belongs to
// this task alone. A Task is not safe for concurrent steps; the worker
// enforces one in-flight step at a time.
type Task struct {
	ID      string
	Input   string
	Memory  *memory.Buffer
	Scratch Scratch

	stepInFlight atomic.Bool
}

// NewTask builds a task for one user input. persistent may be nil for a
// task with no prior history.
func NewTask(input string, persistent *memory.Buffer) *Task {
	if persistent == nil {
		persistent = memory.NewBuffer()
	}
	return &Task{
		ID:      uuid.NewString(),
		Input:   input,
		Memory:  persistent,
		Scratch: Scratch{Memory: memory.NewBuffer()},
	}
}

// Step is one iteration of the model-call/tool-dispatch cycle. Input is
// set only on a task's first step; continuation steps carry none.
type Step struct {
	TaskID string
	ID     string
	Input  string
}

// StepOutput is the result of running one step.
type StepOutput struct {
	// Response wraps the model message this step produced.
	Response *Response

	// Step is the step that produced this output.
	Step Step

	// NextSteps holds the continuation, empty when Done. This design
	// emits at most one successor per step.
	NextSteps []Step

	// Done marks the task's final step.
	Done bool
}
