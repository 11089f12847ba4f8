package flow

import (
	"context"
	"fmt"
	"sync"
)

// ExtractionContext carries what a store needs to materialize a default chat state.
type ExtractionContext struct {
	Runner   string
	Language string
}

// ChatStateStore persists chat states. Extract returns the stored state or a fresh
// default one; Store is an idempotent upsert.
type ChatStateStore interface {
	Extract(ctx context.Context, chatID int64, ec ExtractionContext) (*ChatState, error)
	Store(ctx context.Context, state *ChatState) error
}

// DefaultChatState builds the state of a chat seen for the first time.
func DefaultChatState(chatID int64, ec ExtractionContext) *ChatState {
	state := NewChatState(chatID, ec.Runner)
	if ec.Language != "" {
		state.Language = ec.Language
	}
	if ec.Runner != "" {
		state.SetMetadata(RunnerNameKey, ec.Runner)
	}
	return state
}

type stateKey struct {
	chatID int64
	runner string
}

// MemoryStore keeps chat states in process memory keyed by chat and runner.
type MemoryStore struct {
	mu     sync.Mutex
	states map[stateKey]*ChatState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[stateKey]*ChatState)}
}

func (m *MemoryStore) Extract(_ context.Context, chatID int64, ec ExtractionContext) (*ChatState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stateKey{chatID: chatID, runner: ec.Runner}
	state, ok := m.states[key]
	if !ok {
		state = DefaultChatState(chatID, ec)
		m.states[key] = state
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Store(_ context.Context, state *ChatState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[stateKey{chatID: state.ChatID, runner: state.Runner}] = state.Clone()
	return nil
}

var _ ChatStateStore = (*MemoryStore)(nil)

// StateRepository is the database side of RepositoryStore.
type StateRepository interface {
	SaveChatState(ctx context.Context, state *ChatState) error
	LoadChatState(ctx context.Context, chatID int64, runner string) (*ChatState, error)
}

// RepositoryStore adapts a StateRepository to ChatStateStore.
type RepositoryStore struct {
	repo StateRepository
}

func NewRepositoryStore(repo StateRepository) *RepositoryStore {
	return &RepositoryStore{repo: repo}
}

func (s *RepositoryStore) Extract(ctx context.Context, chatID int64, ec ExtractionContext) (*ChatState, error) {
	state, err := s.repo.LoadChatState(ctx, chatID, ec.Runner)
	if err != nil {
		return nil, fmt.Errorf("loading chat state: %w", err)
	}
	if state == nil {
		return DefaultChatState(chatID, ec), nil
	}
	return state, nil
}

func (s *RepositoryStore) Store(ctx context.Context, state *ChatState) error {
	if err := s.repo.SaveChatState(ctx, state); err != nil {
		return fmt.Errorf("saving chat state: %w", err)
	}
	return nil
}

var _ ChatStateStore = (*RepositoryStore)(nil)
