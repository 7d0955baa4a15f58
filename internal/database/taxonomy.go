package repository

import (
	"LectureBot/entity"
	"LectureBot/internal/storage"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) ListEntities(ctx context.Context, kind entity.TaxonomyKind) ([]entity.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown taxonomy %q", kind)
	}
	var list []entity.Entity
	err := m.withCollection(kind.Collection(), func(c *mongo.Collection) error {
		cursor, err := c.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &list)
	})
	return list, err
}

func (m *MongoDB) GetEntity(ctx context.Context, kind entity.TaxonomyKind, id string) (*entity.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown taxonomy %q", kind)
	}
	var e entity.Entity
	err := m.withCollection(kind.Collection(), func(c *mongo.Collection) error {
		if err := c.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&e); err != nil {
			return m.findError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func prepareEntity(e *entity.Entity, now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
}

func (m *MongoDB) AddEntity(ctx context.Context, kind entity.TaxonomyKind, e *entity.Entity) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown taxonomy %q", kind)
	}
	prepareEntity(e, time.Now().UTC())
	return m.withCollection(kind.Collection(), func(c *mongo.Collection) error {
		if _, err := c.InsertOne(ctx, e); err != nil {
			return fmt.Errorf("mongodb insert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) DeleteEntity(ctx context.Context, kind entity.TaxonomyKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown taxonomy %q", kind)
	}
	return m.withCollection(kind.Collection(), func(c *mongo.Collection) error {
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

// CreateSectionTree inserts the tree collection by collection. Standalone
// servers have no transactions, so a failed insert removes what was written.
func (m *MongoDB) CreateSectionTree(ctx context.Context, tree entity.SectionSetup) (*entity.Entity, error) {
	now := time.Now().UTC()
	section := &entity.Entity{Name: tree.Name, FolderStatus: entity.FolderPending}
	prepareEntity(section, now)

	docs := map[entity.TaxonomyKind][]any{entity.KindSection: {section}}
	for _, c := range tree.Classes {
		class := &entity.Entity{Name: c.Name, ParentID: section.ID}
		prepareEntity(class, now)
		docs[entity.KindClass] = append(docs[entity.KindClass], class)
		for _, name := range c.Subjects {
			e := &entity.Entity{Name: name, ParentID: class.ID}
			prepareEntity(e, now)
			docs[entity.KindSubject] = append(docs[entity.KindSubject], e)
		}
		for _, name := range c.Groups {
			e := &entity.Entity{Name: name, ParentID: class.ID}
			prepareEntity(e, now)
			docs[entity.KindGroup] = append(docs[entity.KindGroup], e)
		}
	}
	for _, name := range tree.Professors {
		e := &entity.Entity{Name: name}
		prepareEntity(e, now)
		docs[entity.KindProfessor] = append(docs[entity.KindProfessor], e)
	}

	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)
	db := connection.Database(m.database)

	var written []entity.TaxonomyKind
	for _, kind := range entity.TaxonomyKinds {
		if len(docs[kind]) == 0 {
			continue
		}
		if _, err = db.Collection(kind.Collection()).InsertMany(ctx, docs[kind]); err != nil {
			m.rollbackTree(ctx, db, written, docs)
			return nil, fmt.Errorf("mongodb insert %s: %w", kind.Collection(), err)
		}
		written = append(written, kind)
	}
	return section, nil
}

func (m *MongoDB) rollbackTree(ctx context.Context, db *mongo.Database, kinds []entity.TaxonomyKind, docs map[entity.TaxonomyKind][]any) {
	for _, kind := range kinds {
		ids := make([]string, 0, len(docs[kind]))
		for _, d := range docs[kind] {
			ids = append(ids, d.(*entity.Entity).ID)
		}
		if _, err := db.Collection(kind.Collection()).DeleteMany(ctx, bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}}}); err != nil {
			m.log.Error("rollback section tree", "collection", kind.Collection(), "error", err.Error())
		}
	}
}

func (m *MongoDB) SetFolderStatus(ctx context.Context, sectionID string, status entity.FolderStatus, reason string) error {
	return m.withCollection(entity.KindSection.Collection(), func(c *mongo.Collection) error {
		update := bson.D{{Key: "$set", Value: bson.D{{Key: "folder_status", Value: status}, {Key: "folder_error", Value: reason}}}}
		res, err := c.UpdateOne(ctx, bson.D{{Key: "id", Value: sectionID}}, update)
		if err != nil {
			return fmt.Errorf("mongodb update error: %w", err)
		}
		if res.MatchedCount == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (m *MongoDB) ListSectionsByFolderStatus(ctx context.Context, statuses ...entity.FolderStatus) ([]entity.Entity, error) {
	var list []entity.Entity
	err := m.withCollection(entity.KindSection.Collection(), func(c *mongo.Collection) error {
		filter := bson.D{{Key: "folder_status", Value: bson.D{{Key: "$in", Value: statuses}}}}
		cursor, err := c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &list)
	})
	return list, err
}
