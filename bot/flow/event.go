package flow

import (
	"time"

	"github.com/google/uuid"
)

// Event is a lifecycle notification published on the bus.
type Event interface {
	Name() string
	OccurredAt() time.Time
	// ChatState returns the state the event refers to, or nil.
	ChatState() *ChatState
}

// Header is embedded in every engine event.
type Header struct {
	At          time.Time
	ExecutionID uuid.UUID
	Chat        *ChatContext
}

func (h Header) OccurredAt() time.Time {
	return h.At
}

// Execution returns the id shared by every event of one execution.
func (h Header) Execution() uuid.UUID {
	return h.ExecutionID
}

func (h Header) ChatState() *ChatState {
	if h.Chat == nil {
		return nil
	}
	return h.Chat.State
}

// StepEvent is the common part of events raised while invoking a step.
type StepEvent struct {
	Header
	Context *StepContext
}

func (e StepEvent) Step() *Step {
	return e.Context.Step()
}

type FlowNotFound struct {
	Header
	FlowName string
}

type StepNotFound struct {
	Header
	Flow     *Flow
	StepName string
}

type FlowStarted struct{ StepEvent }

type FlowCompleted struct{ StepEvent }

type FlowTerminated struct{ StepEvent }

type StepStarted struct{ StepEvent }

type StepCompleted struct{ StepEvent }

type StepSuspended struct {
	StepEvent
	// Ignored is set when the step went back to waiting after ignoring an input.
	Ignored bool
}

type StepTerminated struct{ StepEvent }

type StepFailed struct {
	StepEvent
	Err error
}

// ExecutionStarted opens one chain of step invocations.
type ExecutionStarted struct {
	StepEvent
}

// ExecutionCompleted closes a chain with its ordered history.
type ExecutionCompleted struct {
	Header
	History []ExecutionSnapshot
}

// ExecutionFailed reports an error that escaped dispatch of one interaction.
type ExecutionFailed struct {
	Header
	Err error
}

func (*FlowNotFound) Name() string       { return "flow_not_found" }
func (*StepNotFound) Name() string       { return "step_not_found" }
func (*FlowStarted) Name() string        { return "flow_started" }
func (*FlowCompleted) Name() string      { return "flow_completed" }
func (*FlowTerminated) Name() string     { return "flow_terminated" }
func (*StepStarted) Name() string        { return "step_started" }
func (*StepCompleted) Name() string      { return "step_completed" }
func (*StepSuspended) Name() string      { return "step_suspended" }
func (*StepTerminated) Name() string     { return "step_terminated" }
func (*StepFailed) Name() string         { return "step_failed" }
func (*ExecutionStarted) Name() string   { return "execution_started" }
func (*ExecutionCompleted) Name() string { return "execution_completed" }
func (*ExecutionFailed) Name() string    { return "execution_failed" }

var (
	_ Event = (*FlowNotFound)(nil)
	_ Event = (*StepNotFound)(nil)
	_ Event = (*FlowStarted)(nil)
	_ Event = (*FlowCompleted)(nil)
	_ Event = (*FlowTerminated)(nil)
	_ Event = (*StepStarted)(nil)
	_ Event = (*StepCompleted)(nil)
	_ Event = (*StepSuspended)(nil)
	_ Event = (*StepTerminated)(nil)
	_ Event = (*StepFailed)(nil)
	_ Event = (*ExecutionStarted)(nil)
	_ Event = (*ExecutionCompleted)(nil)
	_ Event = (*ExecutionFailed)(nil)
)

// NewExecutionFailed builds the failure report for an interaction that could not be dispatched.
func NewExecutionFailed(chat *ChatContext, err error) *ExecutionFailed {
	return &ExecutionFailed{
		Header: Header{At: time.Now(), ExecutionID: uuid.New(), Chat: chat},
		Err:    err,
	}
}
