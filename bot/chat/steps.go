package chat

import (
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"
)

// OptionSource lists the options a SelectStep renders.
type OptionSource func(ctx context.Context, state *ChatState) ([]Option, error)

// SelectStep renders a list from Source, snapshots it into the state and
// stores the picked option under IDKey/NameKey.
type SelectStep struct {
	StepID  StepID
	Prompt  string
	Empty   string
	Source  OptionSource
	IDKey   string
	NameKey string
	Next    StepID
	// OnSelect replaces the default store-and-advance behaviour.
	OnSelect func(ctx context.Context, m Messenger, state *ChatState, opt Option) StepResult
}

func (s *SelectStep) ID() StepID { return s.StepID }

func (s *SelectStep) Enter(ctx context.Context, m Messenger, state *ChatState) StepResult {
	options, err := s.Source(ctx, state)
	if err != nil {
		return StepResult{Error: fmt.Errorf("listing options for %s: %w", s.StepID, err)}
	}
	if len(options) == 0 {
		empty := s.Empty
		if empty == "" {
			empty = MsgNothingToShow
		}
		if err = m.SendText(ctx, state.ChatID, empty); err != nil {
			return StepResult{Error: err}
		}
		return StepResult{Abort: true}
	}
	state.SetOptions(options)
	if err = m.SendOptions(ctx, state.ChatID, s.Prompt, options); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

func (s *SelectStep) HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult {
	opt, ok := state.SelectOption(input.Text)
	if !ok {
		return reprompt(ctx, m, state, s.Prompt, state.Options)
	}
	if s.OnSelect != nil {
		return s.OnSelect(ctx, m, state, opt)
	}
	update := make(map[string]any, 2)
	if s.IDKey != "" {
		update[s.IDKey] = opt.ID
	}
	if s.NameKey != "" {
		update[s.NameKey] = opt.Text
	}
	return StepResult{NextStep: s.Next, UpdateState: update}
}

// MenuItem is a fixed menu entry leading to Next.
type MenuItem struct {
	Text  string
	Value string
	Next  StepID
}

// MenuStep is a fixed numbered menu; the chosen item's Value is stored under Key.
type MenuStep struct {
	StepID StepID
	Prompt string
	Items  []MenuItem
	Key    string
}

func (s *MenuStep) ID() StepID { return s.StepID }

func (s *MenuStep) options() []Option {
	options := make([]Option, len(s.Items))
	for i, item := range s.Items {
		id := item.Value
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		options[i] = Option{ID: id, Text: item.Text}
	}
	return options
}

func (s *MenuStep) Enter(ctx context.Context, m Messenger, state *ChatState) StepResult {
	options := s.options()
	state.SetOptions(options)
	if err := m.SendOptions(ctx, state.ChatID, s.Prompt, options); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

func (s *MenuStep) HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult {
	num, ok := ParseChoice(input.Text, len(s.Items))
	if !ok {
		return reprompt(ctx, m, state, s.Prompt, s.options())
	}
	item := s.Items[num-1]
	result := StepResult{NextStep: item.Next}
	if s.Key != "" {
		result.UpdateState = map[string]any{s.Key: item.Value}
	}
	return result
}

// TextStep asks for one free-text field.
type TextStep struct {
	StepID StepID
	Prompt string
	Key    string
	Next   StepID
	// Normalize validates and rewrites the reply; false re-prompts with Invalid.
	Normalize func(string) (string, bool)
	Invalid   string
}

func (s *TextStep) ID() StepID { return s.StepID }

func (s *TextStep) Enter(ctx context.Context, m Messenger, state *ChatState) StepResult {
	if err := m.SendText(ctx, state.ChatID, s.Prompt); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

func (s *TextStep) HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return sendAndStay(ctx, m, state, MsgEmptyText+"\n"+s.Prompt)
	}
	if s.Normalize != nil {
		value, ok := s.Normalize(text)
		if !ok {
			invalid := s.Invalid
			if invalid == "" {
				invalid = MsgInvalidValue
			}
			return sendAndStay(ctx, m, state, invalid)
		}
		text = value
	}
	return StepResult{NextStep: s.Next, UpdateState: map[string]any{s.Key: text}}
}

// FileStep waits for an attachment of MimeType.
type FileStep struct {
	StepID   StepID
	Prompt   string
	MimeType string
	Invalid  string
	OnFile   func(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult
}

func (s *FileStep) ID() StepID { return s.StepID }

func (s *FileStep) Enter(ctx context.Context, m Messenger, state *ChatState) StepResult {
	if err := m.SendText(ctx, state.ChatID, s.Prompt); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

func (s *FileStep) HandleInput(ctx context.Context, m Messenger, state *ChatState, input UserInput) StepResult {
	if input.Attachment == nil || !MatchesMime(input.Attachment.MimeType, s.MimeType) {
		invalid := s.Invalid
		if invalid == "" {
			invalid = MsgWrongFile
		}
		return sendAndStay(ctx, m, state, invalid)
	}
	return s.OnFile(ctx, m, state, input)
}

// ActionStep runs an effect as soon as it is entered.
type ActionStep struct {
	StepID StepID
	Run    func(ctx context.Context, m Messenger, state *ChatState) StepResult
}

func (s *ActionStep) ID() StepID { return s.StepID }

func (s *ActionStep) Enter(ctx context.Context, m Messenger, state *ChatState) StepResult {
	return s.Run(ctx, m, state)
}

func (s *ActionStep) HandleInput(ctx context.Context, m Messenger, state *ChatState, _ UserInput) StepResult {
	return s.Run(ctx, m, state)
}

// MatchesMime compares media types ignoring parameters and case.
func MatchesMime(got, want string) bool {
	mediaType, _, err := mime.ParseMediaType(got)
	if err != nil {
		mediaType = got
	}
	return strings.EqualFold(strings.TrimSpace(mediaType), want)
}

func reprompt(ctx context.Context, m Messenger, state *ChatState, prompt string, options []Option) StepResult {
	if err := m.SendText(ctx, state.ChatID, MsgInvalidChoice); err != nil {
		return StepResult{Error: err}
	}
	if err := m.SendOptions(ctx, state.ChatID, prompt, options); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

func sendAndStay(ctx context.Context, m Messenger, state *ChatState, text string) StepResult {
	if err := m.SendText(ctx, state.ChatID, text); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{}
}

// Done sends text and completes the workflow.
func Done(ctx context.Context, m Messenger, state *ChatState, text string) StepResult {
	if err := m.SendText(ctx, state.ChatID, text); err != nil {
		return StepResult{Error: err}
	}
	return StepResult{Complete: true}
}
