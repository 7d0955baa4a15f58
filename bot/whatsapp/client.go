package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/ws"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
)

// EventHandler receives normalized transport events.
type EventHandler interface {
	OnMessage(ctx context.Context, msg chat.IncomingMessage)
	OnGroupJoin(ctx context.Context, groupID string, userIDs []string)
	OnGroupLeave(ctx context.Context, groupID string, userIDs []string)
	OnAdminChanged(ctx context.Context, groupID string, userIDs []string, promoted bool)
	Notify(eventType string, data any)
}

type participantUpdater interface {
	UpdateGroupParticipants(jid types.JID, changes []types.JID, action whatsmeow.ParticipantChange) ([]types.GroupParticipant, error)
}

// lidResolver maps hidden (LID) user ids to phone number JIDs.
type lidResolver interface {
	GetPNForLID(ctx context.Context, lid types.JID) (types.JID, error)
}

// Bot is a whatsmeow client that implements chat.Messenger and group
// management on top of a postgres device store.
type Bot struct {
	client       *whatsmeow.Client
	participants participantUpdater
	lids         lidResolver
	handler      EventHandler
	queue     *serialQueue
	pairPhone string
	timeout   time.Duration
	ctx       context.Context
	log       *slog.Logger
}

func New(ctx context.Context, db *sql.DB, pairPhone, logLevel string, log *slog.Logger) (*Bot, error) {
	container := sqlstore.NewWithDB(db, "postgres", newLogger(log, "Database", logLevel))
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("upgrade device store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, newLogger(log, "Client", logLevel))
	return &Bot{
		client:       client,
		participants: client,
		lids:         device.LIDs,
		queue:        newSerialQueue(),
		pairPhone:    pairPhone,
		timeout:      5 * time.Minute,
		ctx:          ctx,
		log:          log.With(sl.Module("whatsapp")),
	}, nil
}

func (b *Bot) SetHandler(h EventHandler) {
	b.handler = h
}

// Start connects the client. An unpaired device logs in with a QR code or,
// when a pairing phone is configured, a pairing code; both are broadcast.
func (b *Bot) Start(ctx context.Context) error {
	b.client.AddEventHandler(b.handleEvent)

	if b.client.Store.ID != nil {
		if err := b.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	}

	if b.pairPhone != "" {
		if err := b.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		code, err := b.client.PairPhone(ctx, chat.UserKey(b.pairPhone), true, whatsmeow.PairClientChrome, "Chrome (Linux)")
		if err != nil {
			return fmt.Errorf("pair phone: %w", err)
		}
		b.log.Info("enter pairing code on the phone", slog.String("code", code))
		b.notify(ws.EventPairCode, code)
		return nil
	}

	qrChan, err := b.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("qr channel: %w", err)
	}
	if err = b.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	go func() {
		for item := range qrChan {
			if item.Event == whatsmeow.QRChannelEventCode {
				b.log.Info("scan qr code to log in", slog.String("qr", item.Code))
				b.notify(ws.EventQR, item.Code)
				continue
			}
			b.log.Info("qr login event", slog.String("event", item.Event))
		}
	}()
	return nil
}

// Stop disconnects and waits for in-flight message handlers.
func (b *Bot) Stop() {
	b.client.Disconnect()
	b.queue.Wait()
}

func (b *Bot) IsConnected() bool {
	return b.client.IsConnected() && b.client.IsLoggedIn()
}

func (b *Bot) notify(eventType string, data any) {
	if b.handler != nil {
		b.handler.Notify(eventType, data)
	}
}
