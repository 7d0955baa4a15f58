package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"LectureBot/bot/chat"
	"LectureBot/entity"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/storage"
)

var ErrInvalidKind = errors.New("unknown taxonomy kind")

func (c *Core) ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error) {
	return c.repo.ListLectures(ctx, filter)
}

func (c *Core) ExportLectures(ctx context.Context, filter entity.LectureFilter) ([]byte, error) {
	if c.exporter == nil {
		return nil, fmt.Errorf("exporter not set")
	}
	lectures, err := c.repo.ListLectures(ctx, filter)
	if err != nil {
		return nil, err
	}
	return c.exporter.LecturesTable(lectures)
}

// DeleteLecture removes the record and, when present, its stored file.
func (c *Core) DeleteLecture(ctx context.Context, id string) error {
	lecture, err := c.repo.GetLecture(ctx, id)
	if err != nil {
		return err
	}
	if err = c.repo.DeleteLecture(ctx, id); err != nil {
		return err
	}
	if lecture.File.BlobID != "" && c.blobs != nil {
		if err = c.blobs.Delete(ctx, lecture.File.BlobID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.log.With(sl.Err(err), slog.String("blob", lecture.File.BlobID)).Warn("delete lecture file")
		}
	}
	return nil
}

func (c *Core) ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return c.repo.ListEntities(ctx, kind)
}

// AddEntity stores a taxonomy entry; kinds with a parent require an existing parent id.
func (c *Core) AddEntity(ctx context.Context, kind entity.TaxonomyKind, name, parentID string) (*entity.Entity, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if parent := kind.Parent(); parent != "" {
		if parentID == "" {
			return nil, fmt.Errorf("%s requires a %s id", kind, parent)
		}
		if _, err := c.repo.GetEntity(ctx, parent, parentID); err != nil {
			return nil, fmt.Errorf("%s %s: %w", parent, parentID, err)
		}
	} else {
		parentID = ""
	}
	e := &entity.Entity{Name: name, ParentID: parentID}
	if err := c.repo.AddEntity(ctx, kind, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Core) GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error) {
	return c.repo.GroupStats(ctx, chat.GroupKey(groupID))
}

func (c *Core) ListBlacklist(ctx context.Context) ([]string, error) {
	return c.repo.ListBlacklist(ctx)
}

func (c *Core) AddToBlacklist(ctx context.Context, userID string) error {
	key := chat.UserKey(userID)
	if key == "" {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return c.repo.AddToBlacklist(ctx, key)
}

func (c *Core) RemoveFromBlacklist(ctx context.Context, userID string) error {
	return c.repo.RemoveFromBlacklist(ctx, chat.UserKey(userID))
}
