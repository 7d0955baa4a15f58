package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/chattest"
	"LectureBot/entity"
	"LectureBot/internal/storage/blob"
	"LectureBot/internal/storage/jsonfile"
	"LectureBot/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type removal struct{ group, phone string }

type fakeGroups struct{ removed []removal }

func (f *fakeGroups) RemoveParticipant(_ context.Context, groupID, phone string) error {
	f.removed = append(f.removed, removal{groupID, phone})
	return nil
}

type fakeFolders struct {
	paths [][]string
	err   error
}

func (f *fakeFolders) Name() string { return "fake" }

func (f *fakeFolders) EnsureFolders(_ context.Context, paths []string) (int, error) {
	f.paths = append(f.paths, paths)
	if f.err != nil {
		return 0, f.err
	}
	return len(paths), nil
}

type feed struct{ events []string }

func (f *feed) Broadcast(eventType string, _ any) { f.events = append(f.events, eventType) }

type env struct {
	core      *Core
	store     *jsonfile.Store
	blobs     *blob.LocalStorage
	groups    *fakeGroups
	folders   *fakeFolders
	feed      *feed
	messenger *chattest.Messenger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	blobs, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	e := &env{
		store:     store,
		blobs:     blobs,
		groups:    &fakeGroups{},
		folders:   &fakeFolders{},
		feed:      &feed{},
		messenger: &chattest.Messenger{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.core = New(log)
	e.core.SetRepository(store)
	e.core.SetBlobStore(blobs)
	e.core.SetGroupManager(e.groups)
	e.core.SetProvisioner(e.folders)
	e.core.SetBroadcaster(e.feed)
	e.core.SetMessenger(e.messenger)
	e.core.SetOwner("+966 500 000 001")
	e.core.SetAuthKey("s3cret")
	e.core.SetClock(func() time.Time { return fixedNow })

	engine := chat.NewChatEngine(chat.NewMemoryStorage(), 5*time.Minute, log)
	engine.SetAuthorizer(e.core)
	engine.Commands().Register(chat.Command{Name: "!ping", Handler: func(ctx context.Context, m chat.Messenger, msg chat.IncomingMessage, _ string) error {
		return m.SendText(ctx, msg.ChatID, "pong")
	}})
	e.core.SetEngine(engine)
	return e
}

func TestIsAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.True(t, e.core.IsAdmin(ctx, "966500000001@s.whatsapp.net"))
	assert.False(t, e.core.IsAdmin(ctx, "966500000002@s.whatsapp.net"))
	assert.False(t, e.core.IsAdmin(ctx, ""))

	require.NoError(t, e.store.AddDeveloper(ctx, "966500000002"))
	assert.True(t, e.core.IsAdmin(ctx, "966500000002:12@s.whatsapp.net"))
}

func TestAuthenticateByToken(t *testing.T) {
	e := newEnv(t)

	user, err := e.core.AuthenticateByToken("s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = e.core.AuthenticateByToken("guess")
	assert.Error(t, err)
	_, err = e.core.ValidateToken("")
	assert.Error(t, err)
}

func TestGroupStats_AcceptsBareGroupID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.IncrementMessageCount(ctx, "120363025@g.us", "966500000009"))

	stats, err := e.core.GroupStats(ctx, "120363025")
	require.NoError(t, err)
	assert.Equal(t, "120363025@g.us", stats.GroupID)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestOnMessage_CountsGroupMessagesAndRoutes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.core.OnMessage(ctx, chat.IncomingMessage{
		ChatID: "group1@g.us", SenderID: "group1@g.us", AuthorID: "966500000009@s.whatsapp.net",
		IsGroup: true, Body: "!ping",
	})
	e.core.OnMessage(ctx, chat.IncomingMessage{ChatID: "me", SenderID: "me", FromMe: true, Body: "!ping"})

	assert.Equal(t, "pong", e.messenger.Last().Text)
	assert.Len(t, e.messenger.All(), 1)

	stats, err := e.store.GroupStats(ctx, "group1@g.us")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Messages["966500000009"])
}

func TestOnGroupJoin_RemovesBlacklisted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.AddToBlacklist(ctx, "966500000003"))

	e.core.OnGroupJoin(ctx, "group1@g.us", []string{"966500000003@s.whatsapp.net", "966500000004@s.whatsapp.net"})

	assert.Equal(t, []removal{{"group1@g.us", "+966500000003"}}, e.groups.removed)
	assert.True(t, e.messenger.Contains("+966500000003"))
	stats, err := e.store.GroupStats(ctx, "group1@g.us")
	require.NoError(t, err)
	assert.Len(t, stats.Joins, 2)
	assert.Equal(t, []string{ws.EventGroupJoin}, e.feed.events)
}

func TestOnGroupLeave_Blacklists(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.core.OnGroupLeave(ctx, "group1@g.us", []string{"966500000005@s.whatsapp.net"})

	blocked, err := e.store.IsBlacklisted(ctx, "966500000005")
	require.NoError(t, err)
	assert.True(t, blocked)
	stats, err := e.store.GroupStats(ctx, "group1@g.us")
	require.NoError(t, err)
	require.Len(t, stats.Leaves, 1)
	assert.Equal(t, fixedNow, stats.Leaves[0].At.UTC())
}

func sampleTree() entity.SectionSetup {
	return entity.SectionSetup{
		Name:       "Science",
		Professors: []string{"Dr. A"},
		Classes: []entity.ClassSetup{
			{Name: "First", Subjects: []string{"Math", "Physics"}, Groups: []string{"G1"}},
		},
	}
}

func TestSetupSection_Commits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	result, err := e.core.SetupSection(ctx, sampleTree())
	require.NoError(t, err)
	assert.Equal(t, entity.FolderCommitted, result.Section.FolderStatus)
	assert.Equal(t, 4, result.Folders)
	assert.Empty(t, result.Error)
	assert.Equal(t, [][]string{{"Science", "Science/First", "Science/First/Math", "Science/First/Physics"}}, e.folders.paths)

	pending, err := e.core.PendingSections(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSetupSection_FailureIsReconciled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.folders.err = errors.New("github down")

	result, err := e.core.SetupSection(ctx, sampleTree())
	require.NoError(t, err)
	assert.Equal(t, entity.FolderFailed, result.Section.FolderStatus)
	assert.Equal(t, "github down", result.Error)

	pending, err := e.core.PendingSections(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "github down", pending[0].FolderError)

	assert.Error(t, e.core.ReconcileSections(ctx))

	e.folders.err = nil
	require.NoError(t, e.core.ReconcileSections(ctx))
	last := e.folders.paths[len(e.folders.paths)-1]
	assert.ElementsMatch(t, []string{"Science", "Science/First", "Science/First/Math", "Science/First/Physics"}, last)

	pending, err = e.core.PendingSections(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAddEntity_RequiresParent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.core.AddEntity(ctx, entity.KindClass, "First", "")
	assert.Error(t, err)
	_, err = e.core.AddEntity(ctx, entity.KindClass, "First", "missing")
	assert.Error(t, err)
	_, err = e.core.AddEntity(ctx, "planet", "Mars", "")
	assert.ErrorIs(t, err, ErrInvalidKind)

	section, err := e.core.AddEntity(ctx, entity.KindSection, " Science ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Science", section.Name)
	assert.Empty(t, section.ParentID)

	class, err := e.core.AddEntity(ctx, entity.KindClass, "First", section.ID)
	require.NoError(t, err)
	assert.Equal(t, section.ID, class.ParentID)
}

func TestDeleteLecture_RemovesBlob(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	blobID, err := e.blobs.Put(ctx, "l1.pdf", []byte("%PDF-1.4"), entity.FileMetadata{MIMEType: "application/pdf"})
	require.NoError(t, err)
	lecture := &entity.Lecture{SubjectName: "Math", File: entity.FileRef{BlobID: blobID}}
	require.NoError(t, e.store.SaveLecture(ctx, lecture))

	require.NoError(t, e.core.DeleteLecture(ctx, lecture.ID))

	_, err = e.store.GetLecture(ctx, lecture.ID)
	assert.Error(t, err)
	_, err = e.blobs.Get(ctx, blobID)
	assert.Error(t, err)
}

func TestBlacklistNormalizesIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.core.AddToBlacklist(ctx, "+966 500 000 007"))
	list, err := e.core.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"966500000007"}, list)

	assert.Error(t, e.core.AddToBlacklist(ctx, "abc"))
	require.NoError(t, e.core.RemoveFromBlacklist(ctx, "966500000007@s.whatsapp.net"))
}
