package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open returns a configured PostgreSQL client.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func table(kind entity.TaxonomyKind) (string, error) {
	switch kind {
	case entity.KindSection:
		return "sections", nil
	case entity.KindClass:
		return "classes", nil
	case entity.KindGroup:
		return "study_groups", nil
	case entity.KindProfessor:
		return "professors", nil
	case entity.KindSubject:
		return "subjects", nil
	}
	return "", fmt.Errorf("unknown taxonomy %q", kind)
}

const entityColumns = `id, name, COALESCE(parent_id, '') AS parent_id, folder_status, folder_error, created_at`

func (s *Store) ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	var list []entity.Entity
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq`, entityColumns, tbl)
	if err = s.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", tbl, err)
	}
	return list, nil
}

func (s *Store) GetEntity(ctx context.Context, kind entity.TaxonomyKind, id string) (*entity.Entity, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	var e entity.Entity
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, entityColumns, tbl)
	if err = s.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", tbl, err)
	}
	return &e, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertEntity(ctx context.Context, ex execer, kind entity.TaxonomyKind, e *entity.Entity) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, name, parent_id, folder_status, folder_error, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`, tbl)
	if _, err = ex.ExecContext(ctx, query, e.ID, e.Name, e.ParentID, string(e.FolderStatus), e.FolderError, e.CreatedAt); err != nil {
		return fmt.Errorf("insert %s: %w", tbl, err)
	}
	return nil
}

func (s *Store) AddEntity(ctx context.Context, kind entity.TaxonomyKind, e *entity.Entity) error {
	return s.insertEntity(ctx, s.db, kind, e)
}

func (s *Store) DeleteEntity(ctx context.Context, kind entity.TaxonomyKind, id string) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tbl), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", tbl, err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type lectureRow struct {
	ID            string    `db:"id"`
	Type          string    `db:"type"`
	SectionID     string    `db:"section_id"`
	SectionName   string    `db:"section_name"`
	ClassID       string    `db:"class_id"`
	ClassName     string    `db:"class_name"`
	GroupID       string    `db:"group_id"`
	GroupName     string    `db:"group_name"`
	ProfessorID   string    `db:"professor_id"`
	ProfessorName string    `db:"professor_name"`
	SubjectID     string    `db:"subject_id"`
	SubjectName   string    `db:"subject_name"`
	LectureNumber string    `db:"lecture_number"`
	Date          time.Time `db:"date"`
	UploaderID    string    `db:"uploader_id"`
	FileChatID    string    `db:"file_chat_id"`
	FileMessageID string    `db:"file_message_id"`
	FileBlobID    string    `db:"file_blob_id"`
	FileName      string    `db:"file_name"`
	FileMimeType  string    `db:"file_mime_type"`
	FileSize      int64     `db:"file_size"`
}

func toLectureRow(l *entity.Lecture) lectureRow {
	return lectureRow{
		ID: l.ID, Type: string(l.Type),
		SectionID: l.SectionID, SectionName: l.SectionName,
		ClassID: l.ClassID, ClassName: l.ClassName,
		GroupID: l.GroupID, GroupName: l.GroupName,
		ProfessorID: l.ProfessorID, ProfessorName: l.ProfessorName,
		SubjectID: l.SubjectID, SubjectName: l.SubjectName,
		LectureNumber: l.LectureNumber, Date: l.Date, UploaderID: l.UploaderID,
		FileChatID: l.File.ChatID, FileMessageID: l.File.MessageID, FileBlobID: l.File.BlobID,
		FileName: l.File.FileName, FileMimeType: l.File.MimeType, FileSize: l.File.Size,
	}
}

func (r lectureRow) lecture() entity.Lecture {
	return entity.Lecture{
		ID: r.ID, Type: entity.LectureType(r.Type),
		SectionID: r.SectionID, SectionName: r.SectionName,
		ClassID: r.ClassID, ClassName: r.ClassName,
		GroupID: r.GroupID, GroupName: r.GroupName,
		ProfessorID: r.ProfessorID, ProfessorName: r.ProfessorName,
		SubjectID: r.SubjectID, SubjectName: r.SubjectName,
		LectureNumber: r.LectureNumber, Date: r.Date, UploaderID: r.UploaderID,
		File: entity.FileRef{
			ChatID: r.FileChatID, MessageID: r.FileMessageID, BlobID: r.FileBlobID,
			FileName: r.FileName, MimeType: r.FileMimeType, Size: r.FileSize,
		},
	}
}

const lectureColumns = `id, type, section_id, section_name, class_id, class_name, group_id, group_name,
professor_id, professor_name, subject_id, subject_name, lecture_number, date, uploader_id,
file_chat_id, file_message_id, file_blob_id, file_name, file_mime_type, file_size`

func (s *Store) SaveLecture(ctx context.Context, l *entity.Lecture) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Date.IsZero() {
		l.Date = s.now()
	}
	query := `INSERT INTO lectures (` + lectureColumns + `)
VALUES (:id, :type, :section_id, :section_name, :class_id, :class_name, :group_id, :group_name,
:professor_id, :professor_name, :subject_id, :subject_name, :lecture_number, :date, :uploader_id,
:file_chat_id, :file_message_id, :file_blob_id, :file_name, :file_mime_type, :file_size)
ON CONFLICT (id) DO UPDATE SET lecture_number = EXCLUDED.lecture_number, file_chat_id = EXCLUDED.file_chat_id,
file_message_id = EXCLUDED.file_message_id, file_blob_id = EXCLUDED.file_blob_id`
	if _, err := s.db.NamedExecContext(ctx, query, toLectureRow(l)); err != nil {
		return fmt.Errorf("insert lecture: %w", err)
	}
	return nil
}

func (s *Store) GetLecture(ctx context.Context, id string) (*entity.Lecture, error) {
	var row lectureRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+lectureColumns+` FROM lectures WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get lecture: %w", err)
	}
	l := row.lecture()
	return &l, nil
}

func lectureWhere(filter entity.LectureFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("type", string(filter.Type))
	add("section_id", filter.SectionID)
	add("class_id", filter.ClassID)
	add("group_id", filter.GroupID)
	add("professor_id", filter.ProfessorID)
	add("subject_id", filter.SubjectID)
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(subject_name ILIKE $%[1]d OR professor_name ILIKE $%[1]d OR section_name ILIKE $%[1]d OR class_name ILIKE $%[1]d OR group_name ILIKE $%[1]d OR lecture_number ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error) {
	where, args := lectureWhere(filter)
	var rows []lectureRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+lectureColumns+` FROM lectures`+where+` ORDER BY date, id`, args...); err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	list := make([]entity.Lecture, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.lecture())
	}
	return list, nil
}

func (s *Store) DeleteLecture(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	return affected(res)
}

type archiveRow struct {
	ID            string         `db:"id"`
	LectureID     string         `db:"lecture_id"`
	FileChatID    string         `db:"file_chat_id"`
	FileMessageID string         `db:"file_message_id"`
	FileBlobID    string         `db:"file_blob_id"`
	FileName      string         `db:"file_name"`
	Lecture       types.JSONText `db:"lecture"`
	ArchivedAt    time.Time      `db:"archived_at"`
}

func (s *Store) SaveArchiveEntry(ctx context.Context, a *entity.ArchiveEntry) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = s.now()
	}
	snapshot, err := json.Marshal(a.Lecture)
	if err != nil {
		return fmt.Errorf("encode archived lecture: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO archive (id, lecture_id, file_chat_id, file_message_id, file_blob_id, file_name, lecture, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.LectureID, a.File.ChatID, a.File.MessageID, a.File.BlobID, a.File.FileName, types.JSONText(snapshot), a.ArchivedAt)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}
	return nil
}

func (s *Store) ListArchive(ctx context.Context) ([]entity.ArchiveEntry, error) {
	var rows []archiveRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, lecture_id, file_chat_id, file_message_id, file_blob_id, file_name, lecture, archived_at
FROM archive ORDER BY archived_at`)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	list := make([]entity.ArchiveEntry, 0, len(rows))
	for _, r := range rows {
		entry := entity.ArchiveEntry{
			ID:        r.ID,
			LectureID: r.LectureID,
			File: entity.FileRef{
				ChatID: r.FileChatID, MessageID: r.FileMessageID, BlobID: r.FileBlobID, FileName: r.FileName,
			},
			ArchivedAt: r.ArchivedAt,
		}
		if err = r.Lecture.Unmarshal(&entry.Lecture); err != nil {
			return nil, fmt.Errorf("decode archived lecture %s: %w", r.ID, err)
		}
		list = append(list, entry)
	}
	return list, nil
}

func (s *Store) AddToBlacklist(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO blacklist (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromBlacklist(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blacklist WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete blacklist: %w", err)
	}
	return affected(res)
}

func (s *Store) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM blacklist WHERE user_id = $1)`, userID); err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (s *Store) ListBlacklist(ctx context.Context) ([]string, error) {
	var list []string
	if err := s.db.SelectContext(ctx, &list, `SELECT user_id FROM blacklist ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return list, nil
}

func (s *Store) RecordMembership(ctx context.Context, ev entity.MembershipEvent) error {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO membership_events (group_id, user_id, action, at) VALUES ($1, $2, $3, $4)`,
		ev.GroupID, ev.UserID, string(ev.Action), ev.At)
	if err != nil {
		return fmt.Errorf("insert membership event: %w", err)
	}
	return nil
}

func (s *Store) IncrementMessageCount(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO message_counts (group_id, user_id, count) VALUES ($1, $2, 1)
ON CONFLICT (group_id, user_id) DO UPDATE SET count = message_counts.count + 1`, groupID, userID)
	if err != nil {
		return fmt.Errorf("increment message count: %w", err)
	}
	return nil
}

func (s *Store) GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error) {
	var events []entity.MembershipEvent
	err := s.db.SelectContext(ctx, &events, `SELECT group_id, user_id, action, at FROM membership_events WHERE group_id = $1 ORDER BY at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list membership events: %w", err)
	}
	var counts []struct {
		UserID string `db:"user_id"`
		Count  int    `db:"count"`
	}
	err = s.db.SelectContext(ctx, &counts, `SELECT user_id, count FROM message_counts WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list message counts: %w", err)
	}

	stats := &entity.GroupStats{GroupID: groupID, Messages: make(map[string]int, len(counts))}
	for _, ev := range events {
		record := entity.MemberRecord{UserID: ev.UserID, At: ev.At}
		if ev.Action == entity.MemberJoined {
			stats.Joins = append(stats.Joins, record)
		} else {
			stats.Leaves = append(stats.Leaves, record)
		}
	}
	for _, c := range counts {
		stats.Messages[c.UserID] = c.Count
		stats.TotalMessages += c.Count
	}
	return stats, nil
}

func (s *Store) ListDevelopers(ctx context.Context) ([]string, error) {
	var list []string
	if err := s.db.SelectContext(ctx, &list, `SELECT user_id FROM developers ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list developers: %w", err)
	}
	return list, nil
}

func (s *Store) AddDeveloper(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO developers (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
		return fmt.Errorf("insert developer: %w", err)
	}
	return nil
}

// CreateSectionTree inserts the whole tree in one transaction.
func (s *Store) CreateSectionTree(ctx context.Context, tree entity.SectionSetup) (*entity.Entity, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin section setup: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := s.now()
	section := &entity.Entity{Name: tree.Name, FolderStatus: entity.FolderPending, CreatedAt: now}
	if err = s.insertEntity(ctx, tx, entity.KindSection, section); err != nil {
		return nil, err
	}
	for _, c := range tree.Classes {
		class := &entity.Entity{Name: c.Name, ParentID: section.ID, CreatedAt: now}
		if err = s.insertEntity(ctx, tx, entity.KindClass, class); err != nil {
			return nil, err
		}
		for _, name := range c.Subjects {
			if err = s.insertEntity(ctx, tx, entity.KindSubject, &entity.Entity{Name: name, ParentID: class.ID, CreatedAt: now}); err != nil {
				return nil, err
			}
		}
		for _, name := range c.Groups {
			if err = s.insertEntity(ctx, tx, entity.KindGroup, &entity.Entity{Name: name, ParentID: class.ID, CreatedAt: now}); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range tree.Professors {
		if err = s.insertEntity(ctx, tx, entity.KindProfessor, &entity.Entity{Name: name, CreatedAt: now}); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit section setup: %w", err)
	}
	commit = true
	return section, nil
}

func (s *Store) SetFolderStatus(ctx context.Context, sectionID string, status entity.FolderStatus, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sections SET folder_status = $2, folder_error = $3 WHERE id = $1`, sectionID, string(status), reason)
	if err != nil {
		return fmt.Errorf("update folder status: %w", err)
	}
	return affected(res)
}

func (s *Store) ListSectionsByFolderStatus(ctx context.Context, statuses ...entity.FolderStatus) ([]entity.Entity, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	var list []entity.Entity
	err := s.db.SelectContext(ctx, &list, `SELECT `+entityColumns+` FROM sections WHERE folder_status = ANY($1) ORDER BY seq`, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("list sections by folder status: %w", err)
	}
	return list, nil
}

var _ storage.Repository = (*Store)(nil)
