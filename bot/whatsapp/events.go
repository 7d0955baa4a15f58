package whatsapp

import (
	"context"
	"log/slog"

	"LectureBot/bot/chat"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/ws"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func (b *Bot) handleEvent(evt interface{}) {
	if b.handler == nil {
		return
	}
	switch v := evt.(type) {
	case *events.Message:
		msg := b.convertMessage(v)
		// one lane per user keeps each conversation in order
		b.queue.Do(chat.UserKey(msg.ActorID()), func() {
			ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
			defer cancel()
			b.handler.OnMessage(ctx, msg)
		})

	case *events.GroupInfo:
		group := v.JID.String()
		b.queue.Do(group, func() {
			ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
			defer cancel()
			if len(v.Join) > 0 {
				b.handler.OnGroupJoin(ctx, group, b.userStrings(ctx, v.Join))
			}
			if len(v.Leave) > 0 {
				b.handler.OnGroupLeave(ctx, group, b.userStrings(ctx, v.Leave))
			}
			if len(v.Promote) > 0 {
				b.handler.OnAdminChanged(ctx, group, b.userStrings(ctx, v.Promote), true)
			}
			if len(v.Demote) > 0 {
				b.handler.OnAdminChanged(ctx, group, b.userStrings(ctx, v.Demote), false)
			}
		})

	case *events.Connected:
		b.log.Info("connected")
		b.notify(ws.EventConnected, nil)

	case *events.Disconnected:
		b.log.Warn("disconnected")
		b.notify(ws.EventDisconnected, nil)

	case *events.LoggedOut:
		b.log.Error("logged out, the device must be paired again", slog.Any("reason", v.Reason))
		b.notify(ws.EventDisconnected, map[string]any{"logged_out": true})

	case *events.PairSuccess:
		b.log.Info("paired", slog.String("jid", v.ID.String()))
	}
}

func (b *Bot) convertMessage(v *events.Message) chat.IncomingMessage {
	msg := chat.IncomingMessage{
		ID:        v.Info.ID,
		ChatID:    v.Info.Chat.String(),
		SenderID:  b.phoneOf(b.ctx, v.Info.Sender, v.Info.SenderAlt).String(),
		IsGroup:   v.Info.IsGroup,
		FromMe:    v.Info.IsFromMe,
		Body:      messageText(v.Message),
		Timestamp: v.Info.Timestamp,
	}
	if msg.IsGroup {
		msg.AuthorID = msg.SenderID
		msg.SenderID = msg.ChatID
	}
	if doc := v.Message.GetDocumentMessage(); doc != nil {
		msg.Attachment = &chat.Attachment{
			MimeType: doc.GetMimetype(),
			FileName: doc.GetFileName(),
			Size:     int64(doc.GetFileLength()),
			Fetch: func(ctx context.Context) ([]byte, error) {
				data, err := b.client.Download(ctx, doc)
				if err != nil {
					b.log.With(sl.Err(err)).Error("download document")
				}
				return data, err
			},
		}
	}
	return msg
}

// phoneOf returns the phone number JID of a user. Hidden (LID) ids are
// resolved through alt, then the device's LID store; unknown ones are kept.
func (b *Bot) phoneOf(ctx context.Context, jid, alt types.JID) types.JID {
	jid = jid.ToNonAD()
	if jid.Server != types.HiddenUserServer {
		return jid
	}
	if alt.Server == types.DefaultUserServer {
		return alt.ToNonAD()
	}
	if b.lids != nil {
		pn, err := b.lids.GetPNForLID(ctx, jid)
		if err != nil {
			b.log.With(sl.Err(err)).Debug("resolve lid", slog.String("lid", jid.String()))
		} else if !pn.IsEmpty() {
			return pn.ToNonAD()
		}
	}
	return jid
}

func (b *Bot) userStrings(ctx context.Context, jids []types.JID) []string {
	out := make([]string, 0, len(jids))
	for _, jid := range jids {
		out = append(out, b.phoneOf(ctx, jid, types.EmptyJID).String())
	}
	return out
}

func messageText(m *waE2E.Message) string {
	switch {
	case m.GetConversation() != "":
		return m.GetConversation()
	case m.GetExtendedTextMessage().GetText() != "":
		return m.GetExtendedTextMessage().GetText()
	case m.GetDocumentMessage().GetCaption() != "":
		return m.GetDocumentMessage().GetCaption()
	}
	return ""
}
