package ws

import (
	"context"

	"github.com/google/uuid"

	"TgFlow/bot/flow"
)

// Listener forwards engine events to the hub. Step starts are skipped, they are
// always followed by a completion, suspension or failure of the same step.
type Listener struct {
	hub *Hub
}

func NewListener(hub *Hub) *Listener {
	return &Listener{hub: hub}
}

func (l *Listener) Supports(e flow.Event) bool {
	_, started := e.(*flow.StepStarted)
	return !started
}

func (l *Listener) Priority() int {
	return flow.PriorityLow
}

func (l *Listener) OnEvent(_ context.Context, e flow.Event) error {
	l.hub.Broadcast(NewEvent(e))
	return nil
}

type stepEvent interface {
	Step() *flow.Step
}

// NewEvent flattens an engine event into its feed representation.
func NewEvent(e flow.Event) *Event {
	out := &Event{
		Type: e.Name(),
		At:   e.OccurredAt(),
	}
	if h, ok := e.(interface{ Execution() uuid.UUID }); ok {
		out.ExecutionID = h.Execution().String()
	}
	if state := e.ChatState(); state != nil {
		out.ChatID = state.ChatID
		out.Runner = state.Runner
		if state.FlowInfo != nil {
			out.Flow = state.FlowInfo.Name
		}
	}

	switch ev := e.(type) {
	case *flow.FlowNotFound:
		out.Flow = ev.FlowName
	case *flow.StepNotFound:
		out.Step = ev.StepName
	case *flow.StepFailed:
		out.Error = errorText(ev.Err)
	case *flow.ExecutionFailed:
		out.Error = errorText(ev.Err)
	}

	if se, ok := e.(stepEvent); ok {
		if step := se.Step(); step != nil {
			out.Flow = step.Flow().ID()
			out.Step = step.Name()
		}
	}
	return out
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
