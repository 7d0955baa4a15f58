package whatsapp

import (
	"fmt"
	"strings"

	"LectureBot/bot/chat"

	"go.mau.fi/whatsmeow/types"
)

// parseChatJID accepts full JIDs, bare phone numbers and bare group ids.
func parseChatJID(id string) (types.JID, error) {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "@") {
		return types.ParseJID(id)
	}
	if strings.Contains(id, "-") || len(chat.UserKey(id)) > 15 {
		return groupJID(id)
	}
	return phoneJID(id)
}

// groupJID appends the group server when the id was typed without it.
func groupJID(id string) (types.JID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.EmptyJID, fmt.Errorf("empty group id")
	}
	if !strings.Contains(id, "@") {
		id += "@" + types.GroupServer
	}
	jid, err := types.ParseJID(id)
	if err != nil {
		return types.EmptyJID, err
	}
	if jid.Server != types.GroupServer {
		return types.EmptyJID, fmt.Errorf("%s is not a group", id)
	}
	return jid, nil
}

func phoneJID(phone string) (types.JID, error) {
	key := chat.UserKey(phone)
	if key == "" {
		return types.EmptyJID, fmt.Errorf("invalid phone number %q", phone)
	}
	return types.NewJID(key, types.DefaultUserServer), nil
}
