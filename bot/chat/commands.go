package chat

import (
	"context"
	"strings"
)

// Access restricts who may run a command.
type Access int

const (
	AccessAnyone Access = iota
	AccessAdmin
)

// CommandFunc handles a command; args is the text after the command token.
type CommandFunc func(ctx context.Context, m Messenger, msg IncomingMessage, args string) error

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Access      Access
	Handler     CommandFunc
}

// Authorizer decides whether a user may run admin commands.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID string) bool
}

// CommandTable maps command tokens to handlers. Lookup is case-insensitive.
type CommandTable struct {
	commands map[string]*Command
	order    []*Command
}

func NewCommandTable() *CommandTable {
	return &CommandTable{commands: make(map[string]*Command)}
}

func (t *CommandTable) Register(cmd Command) {
	c := cmd
	t.order = append(t.order, &c)
	t.commands[strings.ToLower(c.Name)] = &c
	for _, alias := range c.Aliases {
		t.commands[strings.ToLower(alias)] = &c
	}
}

// Lookup matches the first word of text and returns the remaining arguments.
func (t *CommandTable) Lookup(text string) (*Command, string, bool) {
	token, args := FirstWord(text)
	if token == "" {
		return nil, "", false
	}
	cmd, ok := t.commands[strings.ToLower(token)]
	if !ok {
		return nil, "", false
	}
	return cmd, args, true
}

// List returns commands in registration order.
func (t *CommandTable) List() []Command {
	list := make([]Command, 0, len(t.order))
	for _, c := range t.order {
		list = append(list, *c)
	}
	return list
}
