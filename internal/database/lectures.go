package repository

import (
	"LectureBot/entity"
	"LectureBot/internal/storage"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) SaveLecture(ctx context.Context, l *entity.Lecture) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Date.IsZero() {
		l.Date = time.Now().UTC()
	}
	return m.withCollection(lecturesCollection, func(c *mongo.Collection) error {
		_, err := c.ReplaceOne(ctx, bson.D{{Key: "id", Value: l.ID}}, l, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("mongodb upsert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) GetLecture(ctx context.Context, id string) (*entity.Lecture, error) {
	var l entity.Lecture
	err := m.withCollection(lecturesCollection, func(c *mongo.Collection) error {
		if err := c.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&l); err != nil {
			return m.findError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func lectureFilter(f entity.LectureFilter) bson.D {
	filter := bson.D{}
	add := func(key, value string) {
		if value != "" {
			filter = append(filter, bson.E{Key: key, Value: value})
		}
	}
	add("type", string(f.Type))
	add("section_id", f.SectionID)
	add("class_id", f.ClassID)
	add("group_id", f.GroupID)
	add("professor_id", f.ProfessorID)
	add("subject_id", f.SubjectID)
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		var or bson.A
		for _, key := range []string{"subject_name", "professor_name", "section_name", "class_name", "group_name", "lecture_number"} {
			or = append(or, bson.D{{Key: key, Value: re}})
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}
	return filter
}

func (m *MongoDB) ListLectures(ctx context.Context, f entity.LectureFilter) ([]entity.Lecture, error) {
	var list []entity.Lecture
	err := m.withCollection(lecturesCollection, func(c *mongo.Collection) error {
		cursor, err := c.Find(ctx, lectureFilter(f), options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "id", Value: 1}}))
		if err != nil {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &list)
	})
	return list, err
}

func (m *MongoDB) DeleteLecture(ctx context.Context, id string) error {
	return m.withCollection(lecturesCollection, func(c *mongo.Collection) error {
		res, err := c.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
		if err != nil {
			return fmt.Errorf("mongodb delete error: %w", err)
		}
		if res.DeletedCount == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (m *MongoDB) SaveArchiveEntry(ctx context.Context, a *entity.ArchiveEntry) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = time.Now().UTC()
	}
	return m.withCollection(archiveCollection, func(c *mongo.Collection) error {
		if _, err := c.InsertOne(ctx, a); err != nil {
			return fmt.Errorf("mongodb insert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) ListArchive(ctx context.Context) ([]entity.ArchiveEntry, error) {
	var list []entity.ArchiveEntry
	err := m.withCollection(archiveCollection, func(c *mongo.Collection) error {
		cursor, err := c.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "archived_at", Value: 1}}))
		if err != nil {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &list)
	})
	return list, err
}
