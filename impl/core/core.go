package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/storage"
)

type GroupManager interface {
	RemoveParticipant(ctx context.Context, groupID, phone string) error
}

type Provisioner interface {
	Name() string
	EnsureFolders(ctx context.Context, paths []string) (int, error)
}

type Exporter interface {
	LecturesTable(lectures []entity.Lecture) ([]byte, error)
}

// Broadcaster publishes events to the live dashboard feed.
type Broadcaster interface {
	Broadcast(eventType string, data any)
}

// Transport reports the state of the chat connection.
type Transport interface {
	IsConnected() bool
}

type Metrics interface {
	MessageReceived(kind string)
	SectionProvisioned(status string)
}

type Core struct {
	repo      storage.Repository
	blobs     storage.BlobStore
	engine    *chat.ChatEngine
	messenger chat.Messenger
	groups    GroupManager
	folders   Provisioner
	exporter  Exporter
	feed      Broadcaster
	metrics   Metrics
	transport Transport
	ownerKey  string
	authKey   string
	now       func() time.Time
	log       *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		now: time.Now,
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo storage.Repository) {
	c.repo = repo
}

func (c *Core) SetBlobStore(blobs storage.BlobStore) {
	c.blobs = blobs
}

func (c *Core) SetEngine(engine *chat.ChatEngine) {
	c.engine = engine
}

// SetMessenger sets the transport used for replies and notices.
func (c *Core) SetMessenger(m chat.Messenger) {
	c.messenger = m
}

func (c *Core) SetGroupManager(g GroupManager) {
	c.groups = g
}

func (c *Core) SetProvisioner(p Provisioner) {
	c.folders = p
}

func (c *Core) SetExporter(e Exporter) {
	c.exporter = e
}

func (c *Core) SetBroadcaster(b Broadcaster) {
	c.feed = b
}

func (c *Core) SetMetrics(m Metrics) {
	c.metrics = m
}

func (c *Core) SetTransport(t Transport) {
	c.transport = t
}

func (c *Core) Connected() bool {
	return c.transport != nil && c.transport.IsConnected()
}

func (c *Core) SetOwner(ownerID string) {
	c.ownerKey = chat.UserKey(ownerID)
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

func (c *Core) SetClock(now func() time.Time) {
	c.now = now
}

// IsAdmin reports whether userID is the owner or a registered developer.
func (c *Core) IsAdmin(ctx context.Context, userID string) bool {
	key := chat.UserKey(userID)
	if key == "" {
		return false
	}
	if key == c.ownerKey {
		return true
	}
	if c.repo == nil {
		return false
	}
	developers, err := c.repo.ListDevelopers(ctx)
	if err != nil {
		c.log.With(sl.Err(err)).Error("list developers")
		return false
	}
	for _, dev := range developers {
		if dev == key {
			return true
		}
	}
	return false
}

func (c *Core) checkToken(token string) bool {
	return c.authKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(c.authKey)) == 1
}

// AuthenticateByToken accepts the bot password as a bearer token.
func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if !c.checkToken(token) {
		return nil, fmt.Errorf("invalid token")
	}
	return &entity.UserAuth{Username: "admin"}, nil
}

// ValidateToken authenticates websocket clients.
func (c *Core) ValidateToken(token string) (string, error) {
	user, err := c.AuthenticateByToken(token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (c *Core) broadcast(eventType string, data any) {
	if c.feed != nil {
		c.feed.Broadcast(eventType, data)
	}
}

var _ chat.Authorizer = (*Core)(nil)
