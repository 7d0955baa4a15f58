package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"LectureBot/entity"
	"LectureBot/internal/storage"

	"github.com/google/uuid"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./files"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create files directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Put stores data under a generated id that keeps the original extension.
func (s *LocalStorage) Put(_ context.Context, name string, data []byte, _ entity.FileMetadata) (string, error) {
	if int64(len(data)) > entity.MaxFileSize {
		return "", entity.FileTooLargeError(name, int64(len(data)))
	}
	id := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if err := os.WriteFile(s.resolve(id), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return id, nil
}

func (s *LocalStorage) Get(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.resolve(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// resolve keeps ids inside the base directory.
func (s *LocalStorage) resolve(id string) string {
	return filepath.Join(s.baseDir, filepath.Base(id))
}
