package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestEntities_KeepInsertionOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"هندسة", "طب", "حقوق"} {
		require.NoError(t, s.AddEntity(ctx, entity.KindSection, &entity.Entity{Name: name}))
	}

	list, err := s.ListEntities(ctx, entity.KindSection)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "هندسة", list[0].Name)
	assert.Equal(t, "طب", list[1].Name)
	assert.Equal(t, "حقوق", list[2].Name)
	assert.NotEmpty(t, list[0].ID)

	_, err = os.Stat(filepath.Join(s.dir, "sections.json"))
	require.NoError(t, err)
}

func TestEntities_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	e := &entity.Entity{Name: "أ. محمد"}
	require.NoError(t, s.AddEntity(ctx, entity.KindProfessor, e))

	require.NoError(t, s.DeleteEntity(ctx, entity.KindProfessor, e.ID))
	list, err := s.ListEntities(ctx, entity.KindProfessor)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.DeleteEntity(ctx, entity.KindProfessor, e.ID), storage.ErrNotFound)
}

func TestEntities_UnknownKind(t *testing.T) {
	s := newStore(t)
	_, err := s.ListEntities(context.Background(), "planet")
	assert.Error(t, err)
}

func TestLectures_SaveFilterDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	l1 := &entity.Lecture{Type: entity.LectureTypeLecture, SubjectID: "math", SubjectName: "رياضيات", LectureNumber: "1"}
	l2 := &entity.Lecture{Type: entity.LectureTypeSummary, SubjectID: "phys", SubjectName: "فيزياء", LectureNumber: "2"}
	require.NoError(t, s.SaveLecture(ctx, l1))
	require.NoError(t, s.SaveLecture(ctx, l2))
	assert.NotEmpty(t, l1.ID)
	assert.False(t, l1.Date.IsZero())

	list, err := s.ListLectures(ctx, entity.LectureFilter{SubjectID: "math"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, l1.ID, list[0].ID)

	list, err = s.ListLectures(ctx, entity.LectureFilter{Query: "فيزياء"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, l2.ID, list[0].ID)

	got, err := s.GetLecture(ctx, l2.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", got.LectureNumber)

	require.NoError(t, s.DeleteLecture(ctx, l1.ID))
	_, err = s.GetLecture(ctx, l1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArchive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveArchiveEntry(ctx, &entity.ArchiveEntry{LectureID: "l1"}))
	list, err := s.ListArchive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "l1", list[0].LectureID)
}

func TestBlacklist(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToBlacklist(ctx, "u1"))
	require.NoError(t, s.AddToBlacklist(ctx, "u1"))

	ok, err := s.IsBlacklisted(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := s.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, list)

	require.NoError(t, s.RemoveFromBlacklist(ctx, "u1"))
	ok, err = s.IsBlacklisted(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMembership(ctx, entity.MembershipEvent{GroupID: "g1", UserID: "u1", Action: entity.MemberJoined}))
	require.NoError(t, s.RecordMembership(ctx, entity.MembershipEvent{GroupID: "g1", UserID: "u2", Action: entity.MemberLeft}))
	require.NoError(t, s.IncrementMessageCount(ctx, "g1", "u1"))
	require.NoError(t, s.IncrementMessageCount(ctx, "g1", "u1"))
	require.NoError(t, s.IncrementMessageCount(ctx, "g1", "u3"))

	stats, err := s.GroupStats(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, stats.Joins, 1)
	require.Len(t, stats.Leaves, 1)
	assert.Equal(t, "u1", stats.Joins[0].UserID)
	assert.Equal(t, 2, stats.Messages["u1"])
	assert.Equal(t, 3, stats.TotalMessages)

	raw, err := os.ReadFile(filepath.Join(s.dir, "stats.json"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "joins")
	assert.Contains(t, doc, "messages")
}

func TestDevelopers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddDeveloper(ctx, "u9"))
	list, err := s.ListDevelopers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u9"}, list)
}

func TestSectionTree(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	section, err := s.CreateSectionTree(ctx, entity.SectionSetup{
		Name:       "هندسة",
		Professors: []string{"د. علي"},
		Classes: []entity.ClassSetup{
			{Name: "الأولى", Subjects: []string{"رياضيات", "فيزياء"}, Groups: []string{"أ"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.FolderPending, section.FolderStatus)

	classes, err := s.ListEntities(ctx, entity.KindClass)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, section.ID, classes[0].ParentID)

	subjects, err := s.ListEntities(ctx, entity.KindSubject)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	// professors are shared by all sections, like the ones added one by one
	professors, err := s.ListEntities(ctx, entity.KindProfessor)
	require.NoError(t, err)
	require.Len(t, professors, 1)
	assert.Empty(t, professors[0].ParentID)
	assert.Empty(t, entity.KindProfessor.Parent())

	pending, err := s.ListSectionsByFolderStatus(ctx, entity.FolderPending, entity.FolderFailed)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.SetFolderStatus(ctx, section.ID, entity.FolderCommitted, ""))
	pending, err = s.ListSectionsByFolderStatus(ctx, entity.FolderPending, entity.FolderFailed)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
