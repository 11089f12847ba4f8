package statestore

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"TgFlow/bot/flow"
)

// CachedStore keeps recently used chat states in memory in front of a slower store.
// Writes go through to the backing store before the cache is updated.
type CachedStore struct {
	next  flow.ChatStateStore
	cache *gocache.Cache
}

// NewCachedStore wraps next. A non-positive ttl never expires entries.
func NewCachedStore(next flow.ChatStateStore, ttl, cleanup time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &CachedStore{
		next:  next,
		cache: gocache.New(ttl, cleanup),
	}
}

func cacheKey(chatID int64, runner string) string {
	return runner + ":" + strconv.FormatInt(chatID, 10)
}

func (s *CachedStore) Extract(ctx context.Context, chatID int64, ec flow.ExtractionContext) (*flow.ChatState, error) {
	if v, found := s.cache.Get(cacheKey(chatID, ec.Runner)); found {
		return v.(*flow.ChatState).Clone(), nil
	}
	state, err := s.next.Extract(ctx, chatID, ec)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *CachedStore) Store(ctx context.Context, state *flow.ChatState) error {
	if err := s.next.Store(ctx, state); err != nil {
		s.cache.Delete(cacheKey(state.ChatID, state.Runner))
		return err
	}
	s.cache.SetDefault(cacheKey(state.ChatID, state.Runner), state.Clone())
	return nil
}

// Len returns the number of cached chats.
func (s *CachedStore) Len() int {
	return s.cache.ItemCount()
}

var _ flow.ChatStateStore = (*CachedStore)(nil)
