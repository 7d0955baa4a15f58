package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/chattest"
	"LectureBot/bot/chat/taxonomy"
	"LectureBot/entity"
	"LectureBot/internal/storage/jsonfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberCall struct {
	action  string
	groupID string
	phone   string
}

type fakeGroups struct {
	calls []memberCall
	err   error
}

func (f *fakeGroups) record(action, groupID, phone string) error {
	f.calls = append(f.calls, memberCall{action, groupID, phone})
	return f.err
}

func (f *fakeGroups) AddParticipant(_ context.Context, g, p string) error {
	return f.record(ActionAdd, g, p)
}
func (f *fakeGroups) RemoveParticipant(_ context.Context, g, p string) error {
	return f.record(ActionRemove, g, p)
}
func (f *fakeGroups) PromoteParticipant(_ context.Context, g, p string) error {
	return f.record(ActionPromote, g, p)
}
func (f *fakeGroups) DemoteParticipant(_ context.Context, g, p string) error {
	return f.record(ActionDemote, g, p)
}

type fakeExporter struct{ rows int }

func (f *fakeExporter) LecturesTable(lectures []entity.Lecture) ([]byte, error) {
	f.rows = len(lectures)
	return []byte("%PDF table"), nil
}

type ownerOnly string

func (o ownerOnly) IsAdmin(_ context.Context, userID string) bool { return userID == string(o) }

type env struct {
	engine    *chat.ChatEngine
	sessions  *chat.MemoryStorage
	store     *jsonfile.Store
	groups    *fakeGroups
	exporter  *fakeExporter
	messenger *chattest.Messenger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	e := &env{
		sessions:  chat.NewMemoryStorage(),
		store:     store,
		groups:    &fakeGroups{},
		exporter:  &fakeExporter{},
		messenger: &chattest.Messenger{},
	}
	e.engine = chat.NewChatEngine(e.sessions, 5*time.Minute, chattest.Logger())
	e.engine.SetAuthorizer(ownerOnly("owner"))
	require.NoError(t, New(e.groups, store, nil, e.exporter, chattest.Logger()).Register(e.engine))
	require.NoError(t, taxonomy.New(store, chattest.Logger()).Register(e.engine))
	return e
}

func (e *env) send(t *testing.T, user, body string) {
	t.Helper()
	_, err := e.engine.Route(context.Background(), e.messenger, chat.IncomingMessage{
		ChatID: user + "@s.whatsapp.net", SenderID: user, Body: body,
	})
	require.NoError(t, err)
}

func (e *env) session(t *testing.T, user string) *chat.ChatState {
	t.Helper()
	state, err := e.sessions.Load(context.Background(), user)
	require.NoError(t, err)
	return state
}

func TestAdmin_NonOwnerDenied(t *testing.T) {
	e := newEnv(t)

	e.send(t, "student", CmdAdmin)
	assert.Equal(t, chat.MsgNotAllowed, e.messenger.Last().Text)
	assert.Nil(t, e.session(t, "student"))
	assert.Nil(t, e.messenger.LastOptions())
}

func TestAdmin_RemoveMember(t *testing.T) {
	e := newEnv(t)

	e.send(t, "owner", CmdAdmin)
	require.Len(t, e.messenger.LastOptions(), 9)
	e.send(t, "owner", "2")
	e.send(t, "owner", "+966 50-123 4567")
	e.send(t, "owner", "120363025@g.us")

	require.Len(t, e.groups.calls, 1)
	assert.Equal(t, memberCall{ActionRemove, "120363025@g.us", "+966501234567"}, e.groups.calls[0])
	assert.Nil(t, e.session(t, "owner"))
}

func TestAdmin_RemoveMemberFailureApologizes(t *testing.T) {
	e := newEnv(t)
	e.groups.err = errors.New("not an admin of the group")

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "2")
	e.send(t, "owner", "966501234567")
	e.send(t, "owner", "120363025@g.us")

	require.Len(t, e.groups.calls, 1)
	assert.Equal(t, chat.MsgFailure, e.messenger.Last().Text)
	assert.Nil(t, e.session(t, "owner"))
}

func TestAdmin_InvalidPhoneStays(t *testing.T) {
	e := newEnv(t)

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "1")
	e.send(t, "owner", "12")

	assert.Equal(t, MsgInvalidPhone, e.messenger.Last().Text)
	assert.Equal(t, StepPhone, e.session(t, "owner").CurrentStep)
	assert.Empty(t, e.groups.calls)
}

func TestAdmin_OpensTaxonomyFlow(t *testing.T) {
	e := newEnv(t)

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "5")
	e.send(t, "owner", "1") // sections

	state := e.session(t, "owner")
	require.NotNil(t, state)
	assert.Equal(t, taxonomy.WorkflowID(entity.KindSection), state.WorkflowID)
	assert.Equal(t, taxonomy.StepMenu, state.CurrentStep)
}

func TestAdmin_DeleteLecture(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := &entity.Lecture{Type: entity.LectureTypeLecture, SubjectName: "رياضيات", LectureNumber: "1"}
	require.NoError(t, e.store.SaveLecture(ctx, l))

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "6")
	e.send(t, "owner", "1")
	e.send(t, "owner", "1")

	list, err := e.store.ListLectures(ctx, entity.LectureFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Nil(t, e.session(t, "owner"))
}

func TestAdmin_DeleteLectureDeclined(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SaveLecture(ctx, &entity.Lecture{SubjectName: "رياضيات"}))

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "6")
	e.send(t, "owner", "1")
	e.send(t, "owner", "2")

	list, err := e.store.ListLectures(ctx, entity.LectureFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, chat.MsgCancelled, e.messenger.Last().Text)
}

func TestAdmin_ExportLectures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SaveLecture(ctx, &entity.Lecture{SubjectName: "رياضيات"}))
	require.NoError(t, e.store.SaveLecture(ctx, &entity.Lecture{SubjectName: "فيزياء"}))

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "7")

	assert.Equal(t, 2, e.exporter.rows)
	docs := e.messenger.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "application/pdf", docs[0].Document.MimeType)
	assert.Nil(t, e.session(t, "owner"))
}

func TestAdmin_Stats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.RecordMembership(ctx, entity.MembershipEvent{GroupID: "120363025@g.us", UserID: "u1", Action: entity.MemberJoined}))
	require.NoError(t, e.store.IncrementMessageCount(ctx, "120363025@g.us", "u1"))

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "8")
	e.send(t, "owner", "120363025@g.us")

	text := e.messenger.Last().Text
	assert.Contains(t, text, "انضمام: 1")
	assert.Contains(t, text, "الرسائل: 1")
}

func TestAdmin_StatsBareGroupID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.RecordMembership(ctx, entity.MembershipEvent{GroupID: "120363025@g.us", UserID: "u1", Action: entity.MemberJoined}))
	require.NoError(t, e.store.IncrementMessageCount(ctx, "120363025@g.us", "u1"))

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "8")
	e.send(t, "owner", "120363025")

	text := e.messenger.Last().Text
	assert.Contains(t, text, "120363025@g.us")
	assert.Contains(t, text, "انضمام: 1")
	assert.Contains(t, text, "الرسائل: 1")
}

func TestAdmin_Blacklist(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "9")
	e.send(t, "owner", "2")
	e.send(t, "owner", "+966501234567")

	ok, err := e.store.IsBlacklisted(ctx, "966501234567")
	require.NoError(t, err)
	assert.True(t, ok)

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "9")
	e.send(t, "owner", "1")
	assert.Contains(t, e.messenger.Last().Text, "+966501234567")

	e.send(t, "owner", CmdAdmin)
	e.send(t, "owner", "9")
	e.send(t, "owner", "3")
	e.send(t, "owner", "966501234567")

	ok, err = e.store.IsBlacklisted(ctx, "966501234567")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFormatStats_TopSenders(t *testing.T) {
	text := FormatStats(&entity.GroupStats{
		GroupID:       "g",
		Messages:      map[string]int{"a": 1, "b": 5, "c": 5},
		TotalMessages: 11,
	})
	assert.Contains(t, text, "1. b: 5")
	assert.Contains(t, text, "2. c: 5")
	assert.Contains(t, text, "3. a: 1")
}
