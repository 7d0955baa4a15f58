package whatsapp

import (
	"context"
	"fmt"

	"LectureBot/bot/chat"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func (b *Bot) SendText(ctx context.Context, chatID, text string) error {
	jid, err := parseChatJID(chatID)
	if err != nil {
		return err
	}
	_, err = b.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

// SendOptions renders the options as a numbered list; replies are matched by number.
func (b *Bot) SendOptions(ctx context.Context, chatID, text string, options []chat.Option) error {
	return b.SendText(ctx, chatID, chat.FormatNumberedOptions(text, options))
}

func (b *Bot) SendDocument(ctx context.Context, chatID string, doc chat.Document) (string, error) {
	jid, err := parseChatJID(chatID)
	if err != nil {
		return "", err
	}
	up, err := b.client.Upload(ctx, doc.Data, whatsmeow.MediaDocument)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", doc.FileName, err)
	}
	resp, err := b.client.SendMessage(ctx, jid, &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Mimetype:      proto.String(doc.MimeType),
			FileName:      proto.String(doc.FileName),
			Caption:       proto.String(doc.Caption),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (b *Bot) updateParticipant(ctx context.Context, groupID, phone string, action whatsmeow.ParticipantChange) error {
	group, err := groupJID(groupID)
	if err != nil {
		return err
	}
	user, err := phoneJID(phone)
	if err != nil {
		return err
	}
	// whatsmeow takes no context here, so honour cancellation before the call
	if err = ctx.Err(); err != nil {
		return err
	}
	result, err := b.participants.UpdateGroupParticipants(group, []types.JID{user}, action)
	if err != nil {
		return err
	}
	for _, p := range result {
		if p.Error != 0 {
			return fmt.Errorf("%s %s: error %d", action, phone, p.Error)
		}
	}
	return nil
}

func (b *Bot) AddParticipant(ctx context.Context, groupID, phone string) error {
	return b.updateParticipant(ctx, groupID, phone, whatsmeow.ParticipantChangeAdd)
}

func (b *Bot) RemoveParticipant(ctx context.Context, groupID, phone string) error {
	return b.updateParticipant(ctx, groupID, phone, whatsmeow.ParticipantChangeRemove)
}

func (b *Bot) PromoteParticipant(ctx context.Context, groupID, phone string) error {
	return b.updateParticipant(ctx, groupID, phone, whatsmeow.ParticipantChangePromote)
}

func (b *Bot) DemoteParticipant(ctx context.Context, groupID, phone string) error {
	return b.updateParticipant(ctx, groupID, phone, whatsmeow.ParticipantChangeDemote)
}

var _ chat.Messenger = (*Bot)(nil)
