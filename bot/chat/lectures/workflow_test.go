package lectures

import (
	"context"
	"errors"
	"testing"
	"time"

	"LectureBot/bot/chat"
	"LectureBot/bot/chat/chattest"
	"LectureBot/bot/chat/picker"
	"LectureBot/entity"
	"LectureBot/internal/storage/blob"
	"LectureBot/internal/storage/jsonfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4 test")

type env struct {
	engine    *chat.ChatEngine
	sessions  *chat.MemoryStorage
	store     *jsonfile.Store
	blobs     *blob.LocalStorage
	messenger *chattest.Messenger
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	blobs, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	e := &env{
		sessions:  chat.NewMemoryStorage(),
		store:     store,
		blobs:     blobs,
		messenger: &chattest.Messenger{},
	}
	e.engine = chat.NewChatEngine(e.sessions, 5*time.Minute, chattest.Logger())
	require.NoError(t, New(store, blobs, opts, chattest.Logger()).Register(e.engine))
	return e
}

func (e *env) seedTaxonomies(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	add := func(kind entity.TaxonomyKind, id, name, parent string) {
		require.NoError(t, e.store.AddEntity(ctx, kind, &entity.Entity{ID: id, Name: name, ParentID: parent}))
	}
	add(entity.KindSection, "s1", "هندسة", "")
	add(entity.KindClass, "c1", "السنة الأولى", "s1")
	add(entity.KindGroup, "g1", "المجموعة أ", "c1")
	add(entity.KindProfessor, "p1", "د. علي", "")
	add(entity.KindSubject, "m1", "رياضيات", "c1")
}

func (e *env) send(t *testing.T, body string, att *chat.Attachment) bool {
	t.Helper()
	handled, err := e.engine.Route(context.Background(), e.messenger, chat.IncomingMessage{
		ID:         "in-1",
		ChatID:     "grp@g.us",
		SenderID:   "grp@g.us",
		AuthorID:   "u1",
		IsGroup:    true,
		Body:       body,
		Attachment: att,
	})
	require.NoError(t, err)
	return handled
}

func (e *env) session(t *testing.T) *chat.ChatState {
	t.Helper()
	state, err := e.sessions.Load(context.Background(), "u1")
	require.NoError(t, err)
	return state
}

func pdfAttachment() *chat.Attachment {
	return &chat.Attachment{
		MimeType: "application/pdf",
		FileName: "math-3.pdf",
		Size:     int64(len(pdfBytes)),
		Fetch:    func(context.Context) ([]byte, error) { return pdfBytes, nil },
	}
}

func walkToFile(t *testing.T, e *env) {
	t.Helper()
	require.True(t, e.send(t, CmdUpload, nil))
	assert.Equal(t, MsgChooseType, e.messenger.Last().Text)
	for i := 0; i < 6; i++ {
		e.send(t, "1", nil)
	}
	assert.Equal(t, StepNumber, e.session(t).CurrentStep)
	e.send(t, "٣", nil)
	assert.Equal(t, StepFile, e.session(t).CurrentStep)
}

func TestUpload_CompletesAndPersists(t *testing.T) {
	e := newEnv(t, Options{StorageChatID: "storage@g.us", ArchiveChatID: "archive@g.us"})
	e.seedTaxonomies(t)
	ctx := context.Background()

	walkToFile(t, e)
	e.send(t, "", pdfAttachment())

	assert.Nil(t, e.session(t))

	list, err := e.store.ListLectures(ctx, entity.LectureFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	l := list[0]
	assert.Equal(t, entity.LectureTypeLecture, l.Type)
	assert.Equal(t, "s1", l.SectionID)
	assert.Equal(t, "c1", l.ClassID)
	assert.Equal(t, "g1", l.GroupID)
	assert.Equal(t, "p1", l.ProfessorID)
	assert.Equal(t, "m1", l.SubjectID)
	assert.Equal(t, "رياضيات", l.SubjectName)
	assert.Equal(t, "3", l.LectureNumber)
	assert.Equal(t, "u1", l.UploaderID)
	assert.Equal(t, "storage@g.us", l.File.ChatID)

	archive, err := e.store.ListArchive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 1)
	assert.Equal(t, l.ID, archive[0].LectureID)
	assert.Equal(t, "archive@g.us", archive[0].File.ChatID)

	data, err := e.blobs.Get(ctx, l.File.BlobID)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)

	docs := e.messenger.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "storage@g.us", docs[0].ChatID)
	assert.Equal(t, "archive@g.us", docs[1].ChatID)
}

func TestUpload_WithoutStorageChatReferencesIncomingMessage(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)

	walkToFile(t, e)
	e.send(t, "", pdfAttachment())

	list, err := e.store.ListLectures(context.Background(), entity.LectureFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "grp@g.us", list[0].File.ChatID)
	assert.Equal(t, "in-1", list[0].File.MessageID)
	assert.Empty(t, e.messenger.Documents())
}

func TestUpload_EmptyTaxonomyCreatesNoSession(t *testing.T) {
	e := newEnv(t, Options{})
	ctx := context.Background()
	require.NoError(t, e.store.AddEntity(ctx, entity.KindSection, &entity.Entity{Name: "هندسة"}))

	require.True(t, e.send(t, CmdUpload, nil))
	assert.Nil(t, e.session(t))
	assert.Contains(t, e.messenger.Last().Text, "⚠️")
	assert.Contains(t, e.messenger.Last().Text, entity.KindProfessor.Title())
}

func TestUpload_WrongAttachmentDoesNotAdvance(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)
	walkToFile(t, e)

	e.send(t, "", &chat.Attachment{MimeType: "image/jpeg", Fetch: func(context.Context) ([]byte, error) { return nil, nil }})
	assert.Equal(t, MsgNotPDF, e.messenger.Last().Text)
	assert.Equal(t, StepFile, e.session(t).CurrentStep)

	e.send(t, "just text", nil)
	assert.Equal(t, StepFile, e.session(t).CurrentStep)

	list, err := e.store.ListLectures(context.Background(), entity.LectureFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpload_InvalidChoiceKeepsStep(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)

	e.send(t, CmdUpload, nil)
	e.send(t, "1", nil)
	require.Equal(t, picker.StepID(entity.KindSection), e.session(t).CurrentStep)

	e.send(t, "7", nil)
	assert.Equal(t, picker.StepID(entity.KindSection), e.session(t).CurrentStep)
	assert.Equal(t, chat.MsgInvalidChoice, e.messenger.All()[len(e.messenger.All())-2].Text)
}

func TestUpload_FetchFailureApologizesAndClears(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)
	walkToFile(t, e)

	e.send(t, "", &chat.Attachment{
		MimeType: "application/pdf",
		Fetch:    func(context.Context) ([]byte, error) { return nil, errors.New("media expired") },
	})
	assert.Equal(t, chat.MsgFailure, e.messenger.Last().Text)
	assert.Nil(t, e.session(t))
}

func TestDownload_SendsSelectedLecture(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)
	walkToFile(t, e)
	e.send(t, "", pdfAttachment())
	e.messenger.Reset()

	require.True(t, e.send(t, CmdDownload, nil))
	for i := 0; i < 6; i++ {
		e.send(t, "1", nil)
	}
	assert.Equal(t, StepLecture, e.session(t).CurrentStep)
	require.Len(t, e.messenger.LastOptions(), 1)

	e.send(t, "1", nil)
	assert.Nil(t, e.session(t))
	docs := e.messenger.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "grp@g.us", docs[0].ChatID)
	assert.Equal(t, pdfBytes, docs[0].Document.Data)
}

func TestDownload_NoLectures(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)

	e.send(t, CmdDownload, nil)
	assert.Equal(t, MsgNoLectures, e.messenger.Last().Text)
	assert.Nil(t, e.session(t))
}

func TestDownload_NoMatchCompletes(t *testing.T) {
	e := newEnv(t, Options{})
	e.seedTaxonomies(t)
	walkToFile(t, e)
	e.send(t, "", pdfAttachment())

	e.send(t, CmdDownload, nil)
	e.send(t, "2", nil) // summary: nothing uploaded
	for i := 0; i < 5; i++ {
		e.send(t, "1", nil)
	}
	assert.Equal(t, MsgNoMatchingLectures, e.messenger.Last().Text)
	assert.Nil(t, e.session(t))
}
