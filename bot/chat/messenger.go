package chat

import (
	"context"
	"time"
)

// Messenger is the outgoing side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
	SendOptions(ctx context.Context, chatID, text string, options []Option) error
	// SendDocument returns the id of the sent message.
	SendDocument(ctx context.Context, chatID string, doc Document) (string, error)
}

// Option is one entry of a numbered list.
type Option struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Document is an outgoing file.
type Document struct {
	FileName string
	MimeType string
	Caption  string
	Data     []byte
}

// Attachment is a media file carried by an incoming message. Fetch downloads it.
type Attachment struct {
	MimeType string
	FileName string
	Size     int64
	Fetch    func(ctx context.Context) ([]byte, error)
}

// IncomingMessage is a normalized transport message.
type IncomingMessage struct {
	ID         string
	ChatID     string
	SenderID   string
	AuthorID   string
	IsGroup    bool
	FromMe     bool
	Body       string
	Attachment *Attachment
	Timestamp  time.Time
}

// ActorID is the user a message is attributed to: the author in a group, the sender otherwise.
func (m IncomingMessage) ActorID() string {
	if m.IsGroup && m.AuthorID != "" {
		return m.AuthorID
	}
	return m.SenderID
}

// UserInput is what a step receives from a message.
type UserInput struct {
	Text       string
	MessageID  string
	Attachment *Attachment
}
