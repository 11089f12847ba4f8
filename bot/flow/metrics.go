package flow

import (
	"context"
	"sync/atomic"
)

// Metrics counts lifecycle events. It is an Observer.
type Metrics struct {
	NoopObserver

	executions      atomic.Int64
	executionFailed atomic.Int64
	flowsStarted    atomic.Int64
	flowsCompleted  atomic.Int64
	flowsTerminated atomic.Int64
	flowsNotFound   atomic.Int64
	stepsCompleted  atomic.Int64
	stepsSuspended  atomic.Int64
	stepsFailed     atomic.Int64
	stepsNotFound   atomic.Int64
}

// MetricsSnapshot is an immutable copy of Metrics.
type MetricsSnapshot struct {
	Executions       int64 `json:"executions"`
	ExecutionsFailed int64 `json:"executions_failed"`
	FlowsStarted     int64 `json:"flows_started"`
	FlowsCompleted   int64 `json:"flows_completed"`
	FlowsTerminated  int64 `json:"flows_terminated"`
	FlowsNotFound    int64 `json:"flows_not_found"`
	ActiveFlows      int64 `json:"active_flows"`
	StepsCompleted   int64 `json:"steps_completed"`
	StepsSuspended   int64 `json:"steps_suspended"`
	StepsFailed      int64 `json:"steps_failed"`
	StepsNotFound    int64 `json:"steps_not_found"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) OnFlowNotFound(context.Context, *FlowNotFound)         { m.flowsNotFound.Add(1) }
func (m *Metrics) OnStepNotFound(context.Context, *StepNotFound)         { m.stepsNotFound.Add(1) }
func (m *Metrics) OnFlowStarted(context.Context, *FlowStarted)           { m.flowsStarted.Add(1) }
func (m *Metrics) OnFlowCompleted(context.Context, *FlowCompleted)       { m.flowsCompleted.Add(1) }
func (m *Metrics) OnFlowTerminated(context.Context, *FlowTerminated)     { m.flowsTerminated.Add(1) }
func (m *Metrics) OnStepCompleted(context.Context, *StepCompleted)       { m.stepsCompleted.Add(1) }
func (m *Metrics) OnStepSuspended(context.Context, *StepSuspended)       { m.stepsSuspended.Add(1) }
func (m *Metrics) OnStepFailed(context.Context, *StepFailed)             { m.stepsFailed.Add(1) }
func (m *Metrics) OnExecutionStarted(context.Context, *ExecutionStarted) { m.executions.Add(1) }
func (m *Metrics) OnExecutionFailed(context.Context, *ExecutionFailed)   { m.executionFailed.Add(1) }

// Snapshot returns the current counters. ActiveFlows counts flows started but not yet finished.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Executions:       m.executions.Load(),
		ExecutionsFailed: m.executionFailed.Load(),
		FlowsStarted:     m.flowsStarted.Load(),
		FlowsCompleted:   m.flowsCompleted.Load(),
		FlowsTerminated:  m.flowsTerminated.Load(),
		FlowsNotFound:    m.flowsNotFound.Load(),
		StepsCompleted:   m.stepsCompleted.Load(),
		StepsSuspended:   m.stepsSuspended.Load(),
		StepsFailed:      m.stepsFailed.Load(),
		StepsNotFound:    m.stepsNotFound.Load(),
	}
	s.ActiveFlows = max(s.FlowsStarted-s.FlowsCompleted-s.FlowsTerminated, 0)
	return s
}
