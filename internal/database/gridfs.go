package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LectureBot/entity"
	"LectureBot/internal/storage"
)

// GridFS keeps lecture PDFs in the database.
type GridFS struct {
	db *MongoDB
}

func NewGridFS(db *MongoDB) *GridFS {
	return &GridFS{db: db}
}

// Put stores a file and returns its hex object id.
func (g *GridFS) Put(_ context.Context, name string, data []byte, meta entity.FileMetadata) (string, error) {
	if int64(len(data)) > entity.MaxFileSize {
		return "", entity.FileTooLargeError(name, int64(len(data)))
	}
	connection, err := g.db.connect()
	if err != nil {
		return "", err
	}
	defer g.db.disconnect(connection)

	bucket, err := gridfs.NewBucket(connection.Database(g.db.database))
	if err != nil {
		return "", fmt.Errorf("gridfs bucket: %w", err)
	}

	uploadOpts := options.GridFSUpload().SetMetadata(meta)
	uploadStream, err := bucket.OpenUploadStream(name, uploadOpts)
	if err != nil {
		return "", fmt.Errorf("gridfs open upload: %w", err)
	}

	if _, err = io.Copy(uploadStream, bytes.NewReader(data)); err != nil {
		uploadStream.Close()
		return "", fmt.Errorf("gridfs copy: %w", err)
	}

	if err = uploadStream.Close(); err != nil {
		return "", fmt.Errorf("gridfs close upload: %w", err)
	}

	fileID := uploadStream.FileID.(primitive.ObjectID)
	return fileID.Hex(), nil
}

func (g *GridFS) Get(_ context.Context, id string) ([]byte, error) {
	fileID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	connection, err := g.db.connect()
	if err != nil {
		return nil, err
	}
	defer g.db.disconnect(connection)

	bucket, err := gridfs.NewBucket(connection.Database(g.db.database))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}

	var buf bytes.Buffer
	if _, err = bucket.DownloadToStream(fileID, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("gridfs download: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *GridFS) Delete(_ context.Context, id string) error {
	fileID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	connection, err := g.db.connect()
	if err != nil {
		return err
	}
	defer g.db.disconnect(connection)

	bucket, err := gridfs.NewBucket(connection.Database(g.db.database))
	if err != nil {
		return fmt.Errorf("gridfs bucket: %w", err)
	}
	if err = bucket.Delete(fileID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

var _ storage.BlobStore = (*GridFS)(nil)
