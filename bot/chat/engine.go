package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LectureBot/internal/lib/sl"
)

// ChatEngine routes incoming messages either into the active workflow of the
// user or to the command table.
type ChatEngine struct {
	workflows map[WorkflowID]Workflow
	commands  *CommandTable
	storage   ChatStateStorage
	auth      Authorizer
	listener  EngineListener
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewChatEngine creates a new chat engine; states idle for longer than timeout are dropped.
func NewChatEngine(storage ChatStateStorage, timeout time.Duration, log *slog.Logger) *ChatEngine {
	return &ChatEngine{
		workflows: make(map[WorkflowID]Workflow),
		commands:  NewCommandTable(),
		storage:   storage,
		listener:  nopListener{},
		timeout:   timeout,
		now:       time.Now,
		log:       log.With(sl.Module("chat.engine")),
	}
}

func (e *ChatEngine) SetAuthorizer(a Authorizer) {
	e.auth = a
}

func (e *ChatEngine) SetListener(l EngineListener) {
	if l == nil {
		l = nopListener{}
	}
	e.listener = l
}

func (e *ChatEngine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *ChatEngine) Commands() *CommandTable {
	return e.commands
}

// RegisterWorkflow adds a workflow to the engine after checking its graph.
func (e *ChatEngine) RegisterWorkflow(w Workflow) error {
	if v, ok := w.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	e.workflows[w.ID()] = w
	e.log.Debug("registered workflow", slog.String("workflow_id", string(w.ID())))
	return nil
}

// Route handles one incoming message and reports whether it was consumed.
func (e *ChatEngine) Route(ctx context.Context, m Messenger, msg IncomingMessage) (bool, error) {
	userID := msg.ActorID()
	if userID == "" {
		return false, nil
	}

	state, err := e.storage.Load(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading state: %w", err)
	}

	handled := false
	if state != nil && state.Expired(e.now(), e.timeout) {
		e.log.Info("session expired",
			slog.String("user_id", userID),
			slog.String("workflow_id", string(state.WorkflowID)),
			slog.String("step_id", string(state.CurrentStep)),
		)
		e.listener.SessionExpired()
		if err = e.storage.Delete(ctx, userID); err != nil {
			return true, fmt.Errorf("deleting expired state: %w", err)
		}
		if err = m.SendText(ctx, msg.ChatID, MsgSessionExpired); err != nil {
			e.log.Error("sending timeout notice", sl.Err(err))
		}
		state = nil
		handled = true
	}

	if state != nil {
		return true, e.continueWorkflow(ctx, m, state, msg)
	}

	cmd, args, ok := e.commands.Lookup(msg.Body)
	if !ok {
		return handled, nil
	}
	e.runCommand(ctx, m, cmd, msg, args)
	return true, nil
}

func (e *ChatEngine) continueWorkflow(ctx context.Context, m Messenger, state *ChatState, msg IncomingMessage) error {
	state.ChatID = msg.ChatID

	if IsCancel(msg.Body) {
		if err := e.storage.Delete(ctx, state.UserID); err != nil {
			return fmt.Errorf("deleting cancelled state: %w", err)
		}
		e.log.Debug("workflow cancelled",
			slog.String("user_id", state.UserID),
			slog.String("workflow_id", string(state.WorkflowID)),
		)
		return m.SendText(ctx, msg.ChatID, MsgCancelled)
	}

	w, ok := e.workflows[state.WorkflowID]
	if !ok {
		e.fail(ctx, m, state, fmt.Errorf("%w: %s", ErrUnknownWorkflow, state.WorkflowID))
		return nil
	}
	step, ok := w.GetStep(state.CurrentStep)
	if !ok {
		e.fail(ctx, m, state, fmt.Errorf("%w: %s/%s", ErrUnknownStep, state.WorkflowID, state.CurrentStep))
		return nil
	}

	input := UserInput{
		Text:       strings.TrimSpace(msg.Body),
		MessageID:  msg.ID,
		Attachment: msg.Attachment,
	}
	result := step.HandleInput(ctx, m, state, input)
	return e.processResult(ctx, m, state, w, result)
}

func (e *ChatEngine) runCommand(ctx context.Context, m Messenger, cmd *Command, msg IncomingMessage, args string) {
	userID := msg.ActorID()
	log := e.log.With(
		slog.String("command", cmd.Name),
		slog.String("user_id", userID),
		slog.String("chat_id", msg.ChatID),
	)

	if cmd.Access == AccessAdmin && (e.auth == nil || !e.auth.IsAdmin(ctx, userID)) {
		log.Warn("command not allowed")
		if err := m.SendText(ctx, msg.ChatID, MsgNotAllowed); err != nil {
			log.Error("sending denial", sl.Err(err))
		}
		return
	}

	e.listener.CommandHandled(cmd.Name)
	log.Debug("running command")
	if err := cmd.Handler(ctx, m, msg, args); err != nil {
		log.Error("command failed", sl.Err(err))
		if delErr := e.storage.Delete(ctx, userID); delErr != nil {
			log.Error("deleting state", sl.Err(delErr))
		}
		if sendErr := m.SendText(ctx, msg.ChatID, MsgFailure); sendErr != nil {
			log.Error("sending failure notice", sl.Err(sendErr))
		}
	}
}

// StartWorkflow begins a new workflow for a user; seed is merged into the new state.
func (e *ChatEngine) StartWorkflow(ctx context.Context, m Messenger, userID, chatID string, workflowID WorkflowID, seed map[string]any) error {
	w, ok := e.workflows[workflowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowID)
	}
	step, ok := w.GetStep(w.InitialStep())
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownStep, workflowID, w.InitialStep())
	}

	state := NewChatState(userID, chatID, workflowID, w.InitialStep(), e.now())
	state.MergeData(seed)

	e.log.Info("starting workflow",
		slog.String("user_id", userID),
		slog.String("workflow_id", string(workflowID)),
	)

	result := step.Enter(ctx, m, state)
	return e.processResult(ctx, m, state, w, result)
}

// processResult applies a step result: transitions, chaining and saves.
func (e *ChatEngine) processResult(ctx context.Context, m Messenger, state *ChatState, w Workflow, result StepResult) error {
	const maxTransitions = 20

	for i := 0; ; i++ {
		if result.Error != nil {
			e.fail(ctx, m, state, result.Error)
			return nil
		}

		if result.UpdateState != nil {
			state.MergeData(result.UpdateState)
		}
		state.UpdatedAt = e.now()

		if result.Complete {
			return e.complete(ctx, m, state)
		}
		if result.Abort {
			e.log.Debug("workflow aborted",
				slog.String("user_id", state.UserID),
				slog.String("workflow_id", string(state.WorkflowID)),
				slog.String("step_id", string(state.CurrentStep)),
			)
			if err := e.storage.Delete(ctx, state.UserID); err != nil {
				return fmt.Errorf("deleting aborted state: %w", err)
			}
			return nil
		}

		if result.NextStep == "" || result.NextStep == state.CurrentStep || i >= maxTransitions {
			break
		}

		if !w.CanTransition(state.CurrentStep, result.NextStep) {
			e.fail(ctx, m, state, fmt.Errorf("%w: %s: %s -> %s", ErrInvalidTransition, w.ID(), state.CurrentStep, result.NextStep))
			return nil
		}
		step, ok := w.GetStep(result.NextStep)
		if !ok {
			e.fail(ctx, m, state, fmt.Errorf("%w: %s/%s", ErrUnknownStep, w.ID(), result.NextStep))
			return nil
		}

		e.log.Debug("transitioning",
			slog.String("user_id", state.UserID),
			slog.String("from", string(state.CurrentStep)),
			slog.String("to", string(result.NextStep)),
		)
		state.CurrentStep = result.NextStep
		state.Options = nil

		result = step.Enter(ctx, m, state)
	}

	if err := e.storage.Save(ctx, state); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (e *ChatEngine) complete(ctx context.Context, m Messenger, state *ChatState) error {
	e.log.Info("workflow completed",
		slog.String("user_id", state.UserID),
		slog.String("workflow_id", string(state.WorkflowID)),
	)
	e.listener.WorkflowCompleted(state.WorkflowID)

	if err := e.storage.Delete(ctx, state.UserID); err != nil {
		return fmt.Errorf("deleting completed state: %w", err)
	}

	next := state.GetString(KeyNextWorkflow)
	if next == "" {
		return nil
	}
	return e.StartWorkflow(ctx, m, state.UserID, state.ChatID, WorkflowID(next), nil)
}

// fail reports an apology to the user and drops the state.
func (e *ChatEngine) fail(ctx context.Context, m Messenger, state *ChatState, err error) {
	e.log.Error("workflow failed",
		slog.String("user_id", state.UserID),
		slog.String("workflow_id", string(state.WorkflowID)),
		slog.String("step_id", string(state.CurrentStep)),
		sl.Err(err),
	)
	if delErr := e.storage.Delete(ctx, state.UserID); delErr != nil {
		e.log.Error("deleting failed state", sl.Err(delErr))
	}
	if sendErr := m.SendText(ctx, state.ChatID, MsgFailure); sendErr != nil {
		e.log.Error("sending failure notice", sl.Err(sendErr))
	}
}
