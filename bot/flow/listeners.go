package flow

import (
	"context"
	"log/slog"

	"TgFlow/internal/lib/sl"
)

// RegisterDefaultListeners wires the listeners every engine needs: message
// cleaners and the user message registrar run before the state recorder so that
// the persisted state reflects their changes.
func RegisterDefaultListeners(bus EventBus, store ChatStateStore, log *slog.Logger) {
	bus.Register(NewCompletionCleaner(log))
	bus.Register(NewTerminationCleaner(log))
	bus.Register(NewMessageRegistrar())
	bus.Register(NewStateRecorder(store))
	bus.Register(NewFailureLogger(log))
}

// StateRecorder persists the chat state after every event carrying one.
type StateRecorder struct {
	store ChatStateStore
}

func NewStateRecorder(store ChatStateStore) *StateRecorder {
	return &StateRecorder{store: store}
}

func (r *StateRecorder) Supports(e Event) bool {
	return e.ChatState() != nil
}

func (r *StateRecorder) Priority() int {
	return PriorityDefault
}

func (r *StateRecorder) OnEvent(ctx context.Context, e Event) error {
	return r.store.Store(ctx, e.ChatState())
}

// MessageCleaner deletes every message recorded by a flow once it finishes.
type MessageCleaner struct {
	onCompleted bool
	log         *slog.Logger
}

// NewCompletionCleaner cleans up after FlowCompleted.
func NewCompletionCleaner(log *slog.Logger) *MessageCleaner {
	return &MessageCleaner{onCompleted: true, log: log.With(sl.Module("flow.cleaner"))}
}

// NewTerminationCleaner cleans up after FlowTerminated.
func NewTerminationCleaner(log *slog.Logger) *MessageCleaner {
	return &MessageCleaner{log: log.With(sl.Module("flow.cleaner"))}
}

func (c *MessageCleaner) Supports(e Event) bool {
	if c.onCompleted {
		_, ok := e.(*FlowCompleted)
		return ok
	}
	_, ok := e.(*FlowTerminated)
	return ok
}

func (c *MessageCleaner) Priority() int {
	return PriorityHigh
}

func (c *MessageCleaner) OnEvent(ctx context.Context, e Event) error {
	state := e.ChatState()
	if state == nil {
		return nil
	}
	data := state.FlowData()
	if data == nil {
		return nil
	}
	ids := data.AllMessages()
	data.ClearMessages()
	if len(ids) == 0 {
		return nil
	}
	var client Client
	switch ev := e.(type) {
	case *FlowCompleted:
		client = ev.Context.Client()
	case *FlowTerminated:
		client = ev.Context.Client()
	}
	if client == nil {
		return nil
	}
	c.log.Debug("deleting flow messages", sl.Chat(state.ChatID), slog.Int("count", len(ids)))
	deleteMessages(ctx, client, state.ChatID, ids, c.log)
	return nil
}

// MessageRegistrar records the user message that triggered an execution so that
// it is cleaned up with the flow. Commands are recorded once their flow started.
type MessageRegistrar struct{}

func NewMessageRegistrar() *MessageRegistrar {
	return &MessageRegistrar{}
}

func (r *MessageRegistrar) Supports(e Event) bool {
	switch e.(type) {
	case *ExecutionStarted, *FlowStarted:
		return true
	}
	return false
}

func (r *MessageRegistrar) Priority() int {
	return PriorityHigh
}

func (r *MessageRegistrar) OnEvent(_ context.Context, e Event) error {
	var sc *StepContext
	switch ev := e.(type) {
	case *ExecutionStarted:
		sc = ev.Context
		if !sc.Input().Kind.Resumable() {
			return nil
		}
	case *FlowStarted:
		sc = ev.Context
		if sc.Continuation() || sc.Input().Kind != InputCommand {
			return nil
		}
	default:
		return nil
	}
	if id := sc.Input().MessageID; id != 0 {
		sc.record(UserMessageID(id))
	}
	return nil
}

// FailureLogger reports executions that failed outside step actions.
type FailureLogger struct {
	log *slog.Logger
}

func NewFailureLogger(log *slog.Logger) *FailureLogger {
	return &FailureLogger{log: log.With(sl.Module("flow.failures"))}
}

func (l *FailureLogger) Supports(e Event) bool {
	_, ok := e.(*ExecutionFailed)
	return ok
}

func (l *FailureLogger) Priority() int {
	return PriorityLow
}

func (l *FailureLogger) OnEvent(_ context.Context, e Event) error {
	ev := e.(*ExecutionFailed)
	attrs := []any{sl.Err(ev.Err)}
	if state := ev.ChatState(); state != nil {
		attrs = append(attrs, sl.Chat(state.ChatID))
	}
	l.log.Error("execution failed", attrs...)
	return nil
}
