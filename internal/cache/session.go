package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"LectureBot/bot/chat"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "lecturebot:session:"

// NewRedis returns a client for url, pinged before use.
func NewRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// SessionRepository keeps chat states in redis. Keys outlive the engine
// timeout so that an expired session can still be reported to the user.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, stateTimeout time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: 2 * stateTimeout}
}

func sessionKey(userID string) string {
	return sessionPrefix + userID
}

func (r *SessionRepository) SaveChatState(ctx context.Context, state *chat.ChatState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal chat state: %w", err)
	}
	if err = r.client.Set(ctx, sessionKey(state.UserID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", state.UserID, err)
	}
	return nil
}

func (r *SessionRepository) LoadChatState(ctx context.Context, userID string) (*chat.ChatState, error) {
	raw, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", userID, err)
	}
	return decodeState(raw)
}

func (r *SessionRepository) DeleteChatState(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", userID, err)
	}
	return nil
}

// decodeState restores a state. JSON numbers come back as float64 which
// ChatState.GetInt already accepts.
func decodeState(raw []byte) (*chat.ChatState, error) {
	var state chat.ChatState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal chat state: %w", err)
	}
	if state.Data == nil {
		state.Data = make(map[string]any)
	}
	return &state, nil
}

var _ chat.ChatStateRepository = (*SessionRepository)(nil)
