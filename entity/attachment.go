package entity

import (
	"errors"
	"fmt"
)

// MaxFileSize is the largest PDF accepted for upload (64 MB).
const MaxFileSize = 64 << 20

// ErrFileTooLarge is returned when an uploaded file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError wraps ErrFileTooLarge with details about the offending file.
func FileTooLargeError(filename string, size int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, MaxFileSize>>20)
}

// FileMetadata holds blob metadata for a stored file.
type FileMetadata struct {
	MIMEType string `bson:"mime_type" json:"mime_type"`
	Uploader string `bson:"uploader" json:"uploader"`
}
