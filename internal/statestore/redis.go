package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"TgFlow/bot/flow"
)

// RedisStore keeps chat states as JSON documents under "<prefix>:chat:<runner>:<chat id>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(chatID int64, runner string) string {
	return s.prefix + ":chat:" + runner + ":" + strconv.FormatInt(chatID, 10)
}

func (s *RedisStore) Extract(ctx context.Context, chatID int64, ec flow.ExtractionContext) (*flow.ChatState, error) {
	raw, err := s.client.Get(ctx, s.key(chatID, ec.Runner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return flow.DefaultChatState(chatID, ec), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var state flow.ChatState
	if err = json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decoding chat state %d: %w", chatID, err)
	}
	return &state, nil
}

func (s *RedisStore) Store(ctx context.Context, state *flow.ChatState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding chat state %d: %w", state.ChatID, err)
	}
	if err = s.client.Set(ctx, s.key(state.ChatID, state.Runner), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ flow.ChatStateStore = (*RedisStore)(nil)
