package core

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"TgFlow/bot/flow"
	"TgFlow/entity"
	"TgFlow/internal/lib/sl"
)

const adminUser = "admin"

var (
	ErrAuthDisabled = errors.New("api key not configured")
	ErrInvalidToken = errors.New("invalid token")
	ErrNotReady     = errors.New("service not ready")
)

// AuthenticateByToken accepts the configured api key only.
func (c *Core) AuthenticateByToken(token string) (string, error) {
	if c.authKey == "" {
		return "", ErrAuthDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.authKey)) != 1 {
		return "", ErrInvalidToken
	}
	return adminUser, nil
}

func (c *Core) FlowsInfo() []entity.FlowInfo {
	if c.engine == nil {
		return nil
	}
	flows := c.engine.Flows()
	out := make([]entity.FlowInfo, 0, len(flows))
	for _, f := range flows {
		info := entity.FlowInfo{
			ID:    f.ID(),
			Steps: make([]entity.StepInfo, 0, f.Len()),
		}
		if m, ok := f.Menu(); ok {
			info.Menu = &entity.MenuInfo{Command: m.Command, Description: m.Description, Order: m.Order}
		}
		for _, s := range f.Steps() {
			info.Steps = append(info.Steps, entity.StepInfo{
				Name:        s.Name(),
				FullName:    s.FullName(),
				Suspendable: s.Suspendable(),
				Marker:      s.Marker(),
			})
		}
		out = append(out, info)
	}
	return out
}

func (c *Core) ChatState(ctx context.Context, chatID int64) (*flow.ChatState, error) {
	if c.store == nil {
		return nil, ErrNotReady
	}
	return c.store.Extract(ctx, chatID, flow.ExtractionContext{Runner: c.runner})
}

// EmitEvent decodes a registered event and hands it to the emitter.
func (c *Core) EmitEvent(ctx context.Context, chatID int64, eventType string, payload json.RawMessage) error {
	if c.emitter == nil {
		return ErrNotReady
	}
	event, err := c.events.Decode(eventType, payload)
	if err != nil {
		return err
	}
	c.log.With(
		sl.Chat(chatID),
		slog.String("event", eventType),
	).Debug("emitting event")
	c.emitter.Emit(ctx, chatID, event)
	return nil
}

func (c *Core) EventTypes() []string {
	return c.events.Names()
}

func (c *Core) Metrics() (flow.MetricsSnapshot, error) {
	if c.metrics == nil {
		return flow.MetricsSnapshot{}, fmt.Errorf("%w: metrics", ErrNotReady)
	}
	return c.metrics.Snapshot(), nil
}
