package core

import (
	"context"
	"log/slog"

	"TgFlow/bot/flow"
	"TgFlow/internal/lib/sl"
)

type Engine interface {
	Flows() []*flow.Flow
}

// Emitter delivers custom events into chats, usually the telegram runner.
type Emitter interface {
	Emit(ctx context.Context, chatID int64, event any)
}

type MetricsSource interface {
	Snapshot() flow.MetricsSnapshot
}

// Core backs the admin API with the engine and its collaborators.
type Core struct {
	engine  Engine
	store   flow.ChatStateStore
	emitter Emitter
	metrics MetricsSource
	events  *EventRegistry
	runner  string
	authKey string
	log     *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		events: NewEventRegistry(),
		log:    log.With(sl.Module("core")),
	}
}

func (c *Core) SetEngine(engine Engine) {
	c.engine = engine
}

func (c *Core) SetStore(store flow.ChatStateStore) {
	c.store = store
}

func (c *Core) SetEmitter(emitter Emitter) {
	c.emitter = emitter
}

func (c *Core) SetMetrics(metrics MetricsSource) {
	c.metrics = metrics
}

// SetRunnerName selects whose chat states are read by ChatState.
func (c *Core) SetRunnerName(name string) {
	c.runner = name
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

func (c *Core) Events() *EventRegistry {
	return c.events
}
