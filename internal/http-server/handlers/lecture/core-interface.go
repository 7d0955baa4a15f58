package lecture

import (
	"context"

	"LectureBot/entity"
)

type Core interface {
	ListLectures(ctx context.Context, filter entity.LectureFilter) ([]entity.Lecture, error)
	ExportLectures(ctx context.Context, filter entity.LectureFilter) ([]byte, error)
	DeleteLecture(ctx context.Context, id string) error
}
