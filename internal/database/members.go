package repository

import (
	"LectureBot/entity"
	"LectureBot/internal/storage"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoDB) addUser(ctx context.Context, collection, userID string) error {
	return m.withCollection(collection, func(c *mongo.Collection) error {
		update := bson.D{{Key: "$setOnInsert", Value: userDoc{UserID: userID, CreatedAt: time.Now().UTC()}}}
		_, err := c.UpdateOne(ctx, bson.D{{Key: "user_id", Value: userID}}, update, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("mongodb upsert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) listUsers(ctx context.Context, collection string) ([]string, error) {
	var docs []userDoc
	err := m.withCollection(collection, func(c *mongo.Collection) error {
		cursor, err := c.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
		if err != nil {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.UserID)
	}
	return ids, nil
}

func (m *MongoDB) AddToBlacklist(ctx context.Context, userID string) error {
	return m.addUser(ctx, blacklistCollection, userID)
}

func (m *MongoDB) RemoveFromBlacklist(ctx context.Context, userID string) error {
	return m.withCollection(blacklistCollection, func(c *mongo.Collection) error {
		res, err := c.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}})
		if err != nil {
			return fmt.Errorf("mongodb delete error: %w", err)
		}
		if res.DeletedCount == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (m *MongoDB) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := m.withCollection(blacklistCollection, func(c *mongo.Collection) error {
		var err error
		n, err = c.CountDocuments(ctx, bson.D{{Key: "user_id", Value: userID}})
		return err
	})
	return n > 0, err
}

func (m *MongoDB) ListBlacklist(ctx context.Context) ([]string, error) {
	return m.listUsers(ctx, blacklistCollection)
}

func (m *MongoDB) ListDevelopers(ctx context.Context) ([]string, error) {
	return m.listUsers(ctx, developersCollection)
}

func (m *MongoDB) AddDeveloper(ctx context.Context, userID string) error {
	return m.addUser(ctx, developersCollection, userID)
}

func (m *MongoDB) RecordMembership(ctx context.Context, ev entity.MembershipEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return m.withCollection(membershipCollection, func(c *mongo.Collection) error {
		if _, err := c.InsertOne(ctx, ev); err != nil {
			return fmt.Errorf("mongodb insert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) IncrementMessageCount(ctx context.Context, groupID, userID string) error {
	return m.withCollection(messageCountCollecton, func(c *mongo.Collection) error {
		filter := bson.D{{Key: "group_id", Value: groupID}, {Key: "user_id", Value: userID}}
		update := bson.D{{Key: "$inc", Value: bson.D{{Key: "count", Value: 1}}}}
		if _, err := c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("mongodb upsert error: %w", err)
		}
		return nil
	})
}

func (m *MongoDB) GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)
	db := connection.Database(m.database)
	filter := bson.D{{Key: "group_id", Value: groupID}}

	var events []entity.MembershipEvent
	cursor, err := db.Collection(membershipCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	var counts []struct {
		UserID string `bson:"user_id"`
		Count  int    `bson:"count"`
	}
	cursor, err = db.Collection(messageCountCollecton).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
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

var _ storage.Repository = (*MongoDB)(nil)
