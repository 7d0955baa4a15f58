package storage

import (
	"context"
	"errors"

	"LectureBot/entity"
)

var ErrNotFound = errors.New("not found")

// Repository is implemented by every persistence backend.
type Repository interface {
	ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error)
	GetEntity(ctx context.Context, kind entity.TaxonomyKind, id string) (*entity.Entity, error)
	AddEntity(ctx context.Context, kind entity.TaxonomyKind, e *entity.Entity) error
	DeleteEntity(ctx context.Context, kind entity.TaxonomyKind, id string) error

	SaveLecture(ctx context.Context, l *entity.Lecture) error
	GetLecture(ctx context.Context, id string) (*entity.Lecture, error)
	ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error)
	DeleteLecture(ctx context.Context, id string) error
	SaveArchiveEntry(ctx context.Context, a *entity.ArchiveEntry) error
	ListArchive(ctx context.Context) ([]entity.ArchiveEntry, error)

	AddToBlacklist(ctx context.Context, userID string) error
	RemoveFromBlacklist(ctx context.Context, userID string) error
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
	ListBlacklist(ctx context.Context) ([]string, error)

	RecordMembership(ctx context.Context, ev entity.MembershipEvent) error
	IncrementMessageCount(ctx context.Context, groupID, userID string) error
	GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error)

	ListDevelopers(ctx context.Context) ([]string, error)
	AddDeveloper(ctx context.Context, userID string) error

	// CreateSectionTree stores a section with folder status pending together
	// with its nested classes, subjects, groups and professors.
	CreateSectionTree(ctx context.Context, tree entity.SectionSetup) (*entity.Entity, error)
	SetFolderStatus(ctx context.Context, sectionID string, status entity.FolderStatus, reason string) error
	ListSectionsByFolderStatus(ctx context.Context, statuses ...entity.FolderStatus) ([]entity.Entity, error)

	Close() error
}

// BlobStore keeps uploaded PDF contents.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, meta entity.FileMetadata) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
