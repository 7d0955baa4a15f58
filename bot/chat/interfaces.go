package chat

import (
	"context"
	"errors"
)

// StepID is a unique identifier for a step within a workflow.
type StepID string

// WorkflowID is a unique identifier for a workflow.
type WorkflowID string

var (
	ErrUnknownWorkflow   = errors.New("unknown workflow")
	ErrUnknownStep       = errors.New("unknown step")
	ErrInvalidTransition = errors.New("invalid transition")
)

// StepResult represents the outcome of handling an event in a step.
type StepResult struct {
	NextStep    StepID
	UpdateState map[string]any
	Complete    bool
	Abort       bool // ends the workflow without counting it as completed
	Error       error
}

// Step defines the interface for a single workflow step.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Enter is called when the user enters this step.
	Enter(ctx context.Context, m Messenger, state *ChatState) StepResult

	// HandleInput processes the next message of the user.
	HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult
}

// Workflow defines the interface for a complete workflow.
type Workflow interface {
	ID() WorkflowID
	InitialStep() StepID
	GetStep(id StepID) (Step, bool)

	// CanTransition reports whether to is an edge out of from.
	CanTransition(from, to StepID) bool
}

// ChatStateStorage handles persistence of chat states.
type ChatStateStorage interface {
	Save(ctx context.Context, state *ChatState) error
	Load(ctx context.Context, userID string) (*ChatState, error)
	Delete(ctx context.Context, userID string) error
}
