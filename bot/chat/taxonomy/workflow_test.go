package taxonomy

import (
	"context"
	"testing"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/chattest"
	"LectureBot/entity"
	"LectureBot/internal/storage/jsonfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAll struct{}

func (allowAll) IsAdmin(context.Context, string) bool { return true }

type env struct {
	engine    *chat.ChatEngine
	sessions  *chat.MemoryStorage
	store     *jsonfile.Store
	messenger *chattest.Messenger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	e := &env{sessions: chat.NewMemoryStorage(), store: store, messenger: &chattest.Messenger{}}
	e.engine = chat.NewChatEngine(e.sessions, 5*time.Minute, chattest.Logger())
	e.engine.SetAuthorizer(allowAll{})
	require.NoError(t, New(store, chattest.Logger()).Register(e.engine))
	return e
}

func (e *env) send(t *testing.T, body string) {
	t.Helper()
	_, err := e.engine.Route(context.Background(), e.messenger, chat.IncomingMessage{
		ChatID: "owner@s.whatsapp.net", SenderID: "owner", Body: body,
	})
	require.NoError(t, err)
}

func TestAddSection(t *testing.T) {
	e := newEnv(t)

	e.send(t, Commands[entity.KindSection])
	e.send(t, "1")
	e.send(t, "  هندسة  ")

	list, err := e.store.ListEntities(context.Background(), entity.KindSection)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "هندسة", list[0].Name)
	assert.Empty(t, list[0].ParentID)

	state, err := e.sessions.Load(context.Background(), "owner")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestAddClass_AsksForParent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.AddEntity(ctx, entity.KindSection, &entity.Entity{ID: "s1", Name: "هندسة"}))
	require.NoError(t, e.store.AddEntity(ctx, entity.KindSection, &entity.Entity{ID: "s2", Name: "طب"}))

	e.send(t, Commands[entity.KindClass])
	e.send(t, "1")
	assert.Equal(t, []chat.Option{{ID: "s1", Text: "هندسة"}, {ID: "s2", Text: "طب"}}, e.messenger.LastOptions())
	e.send(t, "2")
	e.send(t, "السنة الأولى")

	list, err := e.store.ListEntities(ctx, entity.KindClass)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s2", list[0].ParentID)
}

func TestAddClass_WithoutSectionsEnds(t *testing.T) {
	e := newEnv(t)

	e.send(t, Commands[entity.KindClass])
	e.send(t, "1")

	state, err := e.sessions.Load(context.Background(), "owner")
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Contains(t, e.messenger.Last().Text, entity.KindSection.Title())
}

func TestListAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.AddEntity(ctx, entity.KindProfessor, &entity.Entity{ID: "p1", Name: "د. علي"}))
	require.NoError(t, e.store.AddEntity(ctx, entity.KindProfessor, &entity.Entity{ID: "p2", Name: "د. سارة"}))

	e.send(t, Commands[entity.KindProfessor])
	e.send(t, "2")
	assert.Contains(t, e.messenger.Last().Text, "1. د. علي")
	assert.Contains(t, e.messenger.Last().Text, "2. د. سارة")

	e.send(t, Commands[entity.KindProfessor])
	e.send(t, "3")
	e.send(t, "1")

	list, err := e.store.ListEntities(ctx, entity.KindProfessor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)
}

func TestEmptyNameReprompts(t *testing.T) {
	e := newEnv(t)

	e.send(t, Commands[entity.KindSubject])
	e.send(t, "1")
	state, err := e.sessions.Load(context.Background(), "owner")
	require.NoError(t, err)
	assert.Nil(t, state, "subjects need a class first")

	e.send(t, Commands[entity.KindSection])
	e.send(t, "1")
	e.send(t, "   ")
	state, err = e.sessions.Load(context.Background(), "owner")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StepName, state.CurrentStep)
}

func TestFlowsValidate(t *testing.T) {
	m := New(nil, chattest.Logger())
	for _, kind := range entity.TaxonomyKinds {
		assert.NoError(t, m.Flow(kind).Validate(), kind)
	}
}
