package repository

import (
	"LectureBot/bot/chat"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatStatesCollection = "chat_states"

// SaveChatState persists a user's chat state by user_id.
func (m *MongoDB) SaveChatState(ctx context.Context, state *chat.ChatState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatStatesCollection)

	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	filter := bson.D{{Key: "user_id", Value: state.UserID}}
	opts := options.Replace().SetUpsert(true)

	_, err = collection.ReplaceOne(ctx, filter, state, opts)
	return err
}

// LoadChatState retrieves a user's chat state; nil when there is none.
func (m *MongoDB) LoadChatState(ctx context.Context, userID string) (*chat.ChatState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatStatesCollection)

	var state chat.ChatState
	err = collection.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}

func (m *MongoDB) DeleteChatState(ctx context.Context, userID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatStatesCollection)

	_, err = collection.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}})
	return err
}

var _ chat.ChatStateRepository = (*MongoDB)(nil)
