// Package chattest provides a recording chat.Messenger for flow tests.
package chattest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"LectureBot/bot/chat"
)

type Sent struct {
	ChatID   string
	Text     string
	Options  []chat.Option
	Document *chat.Document
	// MessageID is set for documents.
	MessageID string
}

// Messenger records everything sent through it.
type Messenger struct {
	mu   sync.Mutex
	sent []Sent
	seq  int
	// DocumentErr fails SendDocument when set.
	DocumentErr error
}

func (m *Messenger) SendText(_ context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{ChatID: chatID, Text: text})
	return nil
}

func (m *Messenger) SendOptions(_ context.Context, chatID, text string, options []chat.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{ChatID: chatID, Text: text, Options: append([]chat.Option(nil), options...)})
	return nil
}

func (m *Messenger) SendDocument(_ context.Context, chatID string, doc chat.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DocumentErr != nil {
		return "", m.DocumentErr
	}
	m.seq++
	id := fmt.Sprintf("msg-%d", m.seq)
	d := doc
	m.sent = append(m.sent, Sent{ChatID: chatID, Document: &d, MessageID: id})
	return id, nil
}

func (m *Messenger) All() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Last returns the most recent message, or an empty record.
func (m *Messenger) Last() Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Sent{}
	}
	return m.sent[len(m.sent)-1]
}

// LastOptions returns the most recently rendered option list.
func (m *Messenger) LastOptions() []chat.Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Options != nil {
			return m.sent[i].Options
		}
	}
	return nil
}

func (m *Messenger) Documents() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []Sent
	for _, s := range m.sent {
		if s.Document != nil {
			docs = append(docs, s)
		}
	}
	return docs
}

// Contains reports whether any text sent so far contains substr.
func (m *Messenger) Contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sent {
		if strings.Contains(s.Text, substr) {
			return true
		}
	}
	return false
}

func (m *Messenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ chat.Messenger = (*Messenger)(nil)
