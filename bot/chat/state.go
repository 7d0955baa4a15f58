package chat

import "time"

// KeyNextWorkflow chains another workflow when the current one completes.
const KeyNextWorkflow = "next_workflow"

// ChatState is the conversation record of one user.
type ChatState struct {
	UserID      string         `json:"user_id" bson:"user_id"`
	ChatID      string         `json:"chat_id" bson:"chat_id"`
	WorkflowID  WorkflowID     `json:"workflow_id" bson:"workflow_id"`
	CurrentStep StepID         `json:"current_step" bson:"current_step"`
	Data        map[string]any `json:"data" bson:"data"`
	// Options is the list last rendered to the user; numeric replies resolve against it.
	Options   []Option  `json:"options,omitempty" bson:"options,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewChatState creates a new ChatState with default values.
func NewChatState(userID, chatID string, workflowID WorkflowID, initialStep StepID, now time.Time) *ChatState {
	return &ChatState{
		UserID:      userID,
		ChatID:      chatID,
		WorkflowID:  workflowID,
		CurrentStep: initialStep,
		Data:        make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Expired reports whether the state was idle for longer than ttl.
func (s *ChatState) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// GetString retrieves a string value from the state data.
func (s *ChatState) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt retrieves an integer value from the state data.
func (s *ChatState) GetInt(key string) int {
	if v, ok := s.Data[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int32:
			return int(val)
		case int64:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return 0
}

// Set stores a value in the state data.
func (s *ChatState) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// MergeData merges additional data into the state.
func (s *ChatState) MergeData(data map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	for k, v := range data {
		s.Data[k] = v
	}
}

// SetOptions snapshots a rendered option list.
func (s *ChatState) SetOptions(options []Option) {
	s.Options = append([]Option(nil), options...)
}

// SelectOption resolves a numeric reply against the snapshot.
func (s *ChatState) SelectOption(text string) (Option, bool) {
	return MatchNumberToOption(text, s.Options)
}

// Clone returns a copy that shares no maps or slices with s.
func (s *ChatState) Clone() *ChatState {
	c := *s
	c.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		c.Data[k] = v
	}
	c.Options = append([]Option(nil), s.Options...)
	return &c
}
