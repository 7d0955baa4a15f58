package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	s := New(sqlx.NewDb(db, "sqlmock"))
	s.now = func() time.Time { return fixedNow }
	return s, mock, func() { db.Close() }
}

func TestListEntities_UsesTaxonomyTable(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "parent_id", "folder_status", "folder_error", "created_at"}).
		AddRow("g1", "أ", "c1", "", "", fixedNow).
		AddRow("g2", "ب", "c1", "", "", fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM study_groups ORDER BY seq")).WillReturnRows(rows)

	list, err := s.ListEntities(context.Background(), entity.KindGroup)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "g1", list[0].ID)
	assert.Equal(t, "c1", list[1].ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntity_NotFound(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetEntity(context.Background(), entity.KindSection, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEntity_AssignsID(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO professors")).
		WithArgs(sqlmock.AnyArg(), "د. علي", "", "", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := &entity.Entity{Name: "د. علي"}
	require.NoError(t, s.AddEntity(context.Background(), entity.KindProfessor, e))
	assert.NotEmpty(t, e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntity_NoRows(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteEntity(context.Background(), entity.KindSubject, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLectures_BuildsFilter(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	columns := []string{"id", "type", "subject_id", "subject_name", "lecture_number", "date", "file_blob_id"}
	rows := sqlmock.NewRows(columns).AddRow("l1", "lecture", "math", "رياضيات", "3", fixedNow, "b1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM lectures WHERE type = $1 AND subject_id = $2 ORDER BY date, id")).
		WithArgs("lecture", "math").
		WillReturnRows(rows)

	list, err := s.ListLectures(context.Background(), entity.LectureFilter{Type: entity.LectureTypeLecture, SubjectID: "math"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].LectureNumber)
	assert.Equal(t, "b1", list[0].File.BlobID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementMessageCount_Upserts(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (group_id, user_id) DO UPDATE")).
		WithArgs("g1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.IncrementMessageCount(context.Background(), "g1", "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupStats(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	events := sqlmock.NewRows([]string{"group_id", "user_id", "action", "at"}).
		AddRow("g1", "u1", "join", fixedNow).
		AddRow("g1", "u2", "leave", fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM membership_events WHERE group_id = $1")).WithArgs("g1").WillReturnRows(events)
	counts := sqlmock.NewRows([]string{"user_id", "count"}).AddRow("u1", 4).AddRow("u3", 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM message_counts WHERE group_id = $1")).WithArgs("g1").WillReturnRows(counts)

	stats, err := s.GroupStats(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, stats.Joins, 1)
	require.Len(t, stats.Leaves, 1)
	assert.Equal(t, 4, stats.Messages["u1"])
	assert.Equal(t, 5, stats.TotalMessages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectionTree_Commits(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sections")).
		WithArgs(sqlmock.AnyArg(), "هندسة", "", "pending", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_groups")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO professors")).
		WithArgs(sqlmock.AnyArg(), "د. علي", "", "", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	section, err := s.CreateSectionTree(context.Background(), entity.SectionSetup{
		Name:       "هندسة",
		Professors: []string{"د. علي"},
		Classes:    []entity.ClassSetup{{Name: "الأولى", Subjects: []string{"رياضيات"}, Groups: []string{"أ"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.FolderPending, section.FolderStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectionTree_RollsBackOnFailure(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sections")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := s.CreateSectionTree(context.Background(), entity.SectionSetup{
		Name:    "هندسة",
		Classes: []entity.ClassSetup{{Name: "الأولى"}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFolderStatus(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET folder_status = $2, folder_error = $3 WHERE id = $1")).
		WithArgs("s1", "failed", "timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetFolderStatus(context.Background(), "s1", entity.FolderFailed, "timeout"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsBlacklisted(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.IsBlacklisted(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListArchive_DecodesRows(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "lecture_id", "file_chat_id", "file_message_id", "file_blob_id", "file_name", "lecture", "archived_at"}).
		AddRow("a1", "l1", "chat", "msg-1", "", "intro.pdf", []byte(`{}`), fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM archive ORDER BY archived_at")).WillReturnRows(rows)

	list, err := s.ListArchive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "l1", list[0].LectureID)
	assert.Equal(t, "msg-1", list[0].File.MessageID)
	assert.Equal(t, "intro.pdf", list[0].File.FileName)
	assert.Equal(t, fixedNow, list[0].ArchivedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
