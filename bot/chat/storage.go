package chat

import (
	"context"
	"sync"
)

// ChatStateRepository defines the database operations for chat state.
type ChatStateRepository interface {
	SaveChatState(ctx context.Context, state *ChatState) error
	LoadChatState(ctx context.Context, userID string) (*ChatState, error)
	DeleteChatState(ctx context.Context, userID string) error
}

// RepositoryStorage adapts a database repository to the ChatStateStorage interface.
type RepositoryStorage struct {
	repo ChatStateRepository
}

func NewRepositoryStorage(repo ChatStateRepository) *RepositoryStorage {
	return &RepositoryStorage{repo: repo}
}

func (s *RepositoryStorage) Save(ctx context.Context, state *ChatState) error {
	return s.repo.SaveChatState(ctx, state)
}

func (s *RepositoryStorage) Load(ctx context.Context, userID string) (*ChatState, error) {
	return s.repo.LoadChatState(ctx, userID)
}

func (s *RepositoryStorage) Delete(ctx context.Context, userID string) error {
	return s.repo.DeleteChatState(ctx, userID)
}

// MemoryStorage keeps states in process memory. Loaded states are copies,
// so a step only changes what the engine saves.
type MemoryStorage struct {
	mu     sync.Mutex
	states map[string]*ChatState
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{states: make(map[string]*ChatState)}
}

func (s *MemoryStorage) Save(_ context.Context, state *ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = state.Clone()
	return nil
}

func (s *MemoryStorage) Load(_ context.Context, userID string) (*ChatState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

// Len returns the number of live states.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
