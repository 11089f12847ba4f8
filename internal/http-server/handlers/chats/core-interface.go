package chats

import (
	"context"
	"encoding/json"

	"TgFlow/bot/flow"
)

type Core interface {
	ChatState(ctx context.Context, chatID int64) (*flow.ChatState, error)
	EmitEvent(ctx context.Context, chatID int64, eventType string, payload json.RawMessage) error
}
