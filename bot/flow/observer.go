package flow

import (
	"context"
	"log/slog"

	"TgFlow/internal/lib/sl"
)

// Observer receives one callback per lifecycle event kind. Attach it to a bus
// with NewObserverListener.
type Observer interface {
	OnFlowNotFound(ctx context.Context, e *FlowNotFound)
	OnStepNotFound(ctx context.Context, e *StepNotFound)
	OnFlowStarted(ctx context.Context, e *FlowStarted)
	OnFlowCompleted(ctx context.Context, e *FlowCompleted)
	OnFlowTerminated(ctx context.Context, e *FlowTerminated)
	OnStepStarted(ctx context.Context, e *StepStarted)
	OnStepCompleted(ctx context.Context, e *StepCompleted)
	OnStepSuspended(ctx context.Context, e *StepSuspended)
	OnStepTerminated(ctx context.Context, e *StepTerminated)
	OnStepFailed(ctx context.Context, e *StepFailed)
	OnExecutionStarted(ctx context.Context, e *ExecutionStarted)
	OnExecutionCompleted(ctx context.Context, e *ExecutionCompleted)
	OnExecutionFailed(ctx context.Context, e *ExecutionFailed)
}

// NoopObserver does nothing; embed it to implement only some callbacks.
type NoopObserver struct{}

func (NoopObserver) OnFlowNotFound(context.Context, *FlowNotFound)             {}
func (NoopObserver) OnStepNotFound(context.Context, *StepNotFound)             {}
func (NoopObserver) OnFlowStarted(context.Context, *FlowStarted)               {}
func (NoopObserver) OnFlowCompleted(context.Context, *FlowCompleted)           {}
func (NoopObserver) OnFlowTerminated(context.Context, *FlowTerminated)         {}
func (NoopObserver) OnStepStarted(context.Context, *StepStarted)               {}
func (NoopObserver) OnStepCompleted(context.Context, *StepCompleted)           {}
func (NoopObserver) OnStepSuspended(context.Context, *StepSuspended)           {}
func (NoopObserver) OnStepTerminated(context.Context, *StepTerminated)         {}
func (NoopObserver) OnStepFailed(context.Context, *StepFailed)                 {}
func (NoopObserver) OnExecutionStarted(context.Context, *ExecutionStarted)     {}
func (NoopObserver) OnExecutionCompleted(context.Context, *ExecutionCompleted) {}
func (NoopObserver) OnExecutionFailed(context.Context, *ExecutionFailed)       {}

var _ Observer = NoopObserver{}

// ObserverListener forwards bus events to an Observer.
type ObserverListener struct {
	observer Observer
	priority int
}

func NewObserverListener(o Observer, priority int) *ObserverListener {
	return &ObserverListener{observer: o, priority: priority}
}

func (l *ObserverListener) Supports(Event) bool {
	return true
}

func (l *ObserverListener) Priority() int {
	return l.priority
}

func (l *ObserverListener) OnEvent(ctx context.Context, e Event) error {
	o := l.observer
	switch ev := e.(type) {
	case *FlowNotFound:
		o.OnFlowNotFound(ctx, ev)
	case *StepNotFound:
		o.OnStepNotFound(ctx, ev)
	case *FlowStarted:
		o.OnFlowStarted(ctx, ev)
	case *FlowCompleted:
		o.OnFlowCompleted(ctx, ev)
	case *FlowTerminated:
		o.OnFlowTerminated(ctx, ev)
	case *StepStarted:
		o.OnStepStarted(ctx, ev)
	case *StepCompleted:
		o.OnStepCompleted(ctx, ev)
	case *StepSuspended:
		o.OnStepSuspended(ctx, ev)
	case *StepTerminated:
		o.OnStepTerminated(ctx, ev)
	case *StepFailed:
		o.OnStepFailed(ctx, ev)
	case *ExecutionStarted:
		o.OnExecutionStarted(ctx, ev)
	case *ExecutionCompleted:
		o.OnExecutionCompleted(ctx, ev)
	case *ExecutionFailed:
		o.OnExecutionFailed(ctx, ev)
	}
	return nil
}

// CompositeObserver fans out callbacks to several observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver drops nil observers and collapses trivial cases.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnFlowNotFound(ctx context.Context, e *FlowNotFound) {
	for _, o := range c.observers {
		o.OnFlowNotFound(ctx, e)
	}
}

func (c *CompositeObserver) OnStepNotFound(ctx context.Context, e *StepNotFound) {
	for _, o := range c.observers {
		o.OnStepNotFound(ctx, e)
	}
}

func (c *CompositeObserver) OnFlowStarted(ctx context.Context, e *FlowStarted) {
	for _, o := range c.observers {
		o.OnFlowStarted(ctx, e)
	}
}

func (c *CompositeObserver) OnFlowCompleted(ctx context.Context, e *FlowCompleted) {
	for _, o := range c.observers {
		o.OnFlowCompleted(ctx, e)
	}
}

func (c *CompositeObserver) OnFlowTerminated(ctx context.Context, e *FlowTerminated) {
	for _, o := range c.observers {
		o.OnFlowTerminated(ctx, e)
	}
}

func (c *CompositeObserver) OnStepStarted(ctx context.Context, e *StepStarted) {
	for _, o := range c.observers {
		o.OnStepStarted(ctx, e)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, e *StepCompleted) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, e)
	}
}

func (c *CompositeObserver) OnStepSuspended(ctx context.Context, e *StepSuspended) {
	for _, o := range c.observers {
		o.OnStepSuspended(ctx, e)
	}
}

func (c *CompositeObserver) OnStepTerminated(ctx context.Context, e *StepTerminated) {
	for _, o := range c.observers {
		o.OnStepTerminated(ctx, e)
	}
}

func (c *CompositeObserver) OnStepFailed(ctx context.Context, e *StepFailed) {
	for _, o := range c.observers {
		o.OnStepFailed(ctx, e)
	}
}

func (c *CompositeObserver) OnExecutionStarted(ctx context.Context, e *ExecutionStarted) {
	for _, o := range c.observers {
		o.OnExecutionStarted(ctx, e)
	}
}

func (c *CompositeObserver) OnExecutionCompleted(ctx context.Context, e *ExecutionCompleted) {
	for _, o := range c.observers {
		o.OnExecutionCompleted(ctx, e)
	}
}

func (c *CompositeObserver) OnExecutionFailed(ctx context.Context, e *ExecutionFailed) {
	for _, o := range c.observers {
		o.OnExecutionFailed(ctx, e)
	}
}

// LoggingObserver writes lifecycle events to a slog.Logger.
type LoggingObserver struct {
	NoopObserver
	log *slog.Logger
}

func NewLoggingObserver(log *slog.Logger) *LoggingObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingObserver{log: log.With(sl.Module("flow.observer"))}
}

func (o *LoggingObserver) OnFlowNotFound(ctx context.Context, e *FlowNotFound) {
	o.log.InfoContext(ctx, "flow not found", sl.Flow(e.FlowName))
}

func (o *LoggingObserver) OnStepNotFound(ctx context.Context, e *StepNotFound) {
	o.log.WarnContext(ctx, "step not found", sl.Flow(e.Flow.ID()), sl.Step(e.StepName))
}

func (o *LoggingObserver) OnFlowStarted(ctx context.Context, e *FlowStarted) {
	o.log.InfoContext(ctx, "flow started", o.stepAttrs(e.StepEvent)...)
}

func (o *LoggingObserver) OnFlowCompleted(ctx context.Context, e *FlowCompleted) {
	o.log.InfoContext(ctx, "flow completed", o.stepAttrs(e.StepEvent)...)
}

func (o *LoggingObserver) OnFlowTerminated(ctx context.Context, e *FlowTerminated) {
	o.log.InfoContext(ctx, "flow terminated", o.stepAttrs(e.StepEvent)...)
}

func (o *LoggingObserver) OnStepFailed(ctx context.Context, e *StepFailed) {
	o.log.ErrorContext(ctx, "step failed", append(o.stepAttrs(e.StepEvent), sl.Err(e.Err))...)
}

func (o *LoggingObserver) OnExecutionCompleted(ctx context.Context, e *ExecutionCompleted) {
	o.log.DebugContext(ctx, "execution completed",
		slog.String("execution_id", e.ExecutionID.String()),
		slog.Int("steps", len(e.History)),
	)
}

func (o *LoggingObserver) stepAttrs(e StepEvent) []any {
	return []any{
		sl.Chat(e.Context.ChatID()),
		sl.Flow(e.Step().Flow().ID()),
		sl.Step(e.Step().Name()),
	}
}
