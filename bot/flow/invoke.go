package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"TgFlow/internal/lib/sl"
)

// invoke runs one step and applies its lifecycle transitions. A returned error is a
// configuration or publication failure; in that case the step state is left as it
// was before the signal was interpreted.
func (e *Engine) invoke(ctx context.Context, execID uuid.UUID, sc *StepContext) (ExecutionResult, error) {
	step := sc.step
	log := sc.Logger().With(sl.Step(step.FullName()))

	if step.IsFirst() {
		log.Debug("flow started")
		if err := e.toFlowStarted(ctx, execID, sc); err != nil {
			return ExecutionResult{}, err
		}
	}

	if step.suspendable && !sc.Resumed() {
		log.Debug("step suspended")
		if err := e.toStepSuspended(ctx, execID, sc, false); err != nil {
			return ExecutionResult{}, err
		}
		return Suspended(false), nil
	}

	log.Debug("step invoke started")
	if err := e.toStep(ctx, execID, sc, StepStateStarted, nil); err != nil {
		return ExecutionResult{}, err
	}

	signal := runAction(ctx, step.action, sc)
	return e.dispatch(ctx, execID, sc, signal, log)
}

// dispatch applies the transitions matching the signal returned by the action.
func (e *Engine) dispatch(ctx context.Context, execID uuid.UUID, sc *StepContext, signal Signal, log *slog.Logger) (ExecutionResult, error) {
	step := sc.step
	switch signal.Kind {
	case SignalContinue:
		if err := e.toStep(ctx, execID, sc, StepStateCompleted, nil); err != nil {
			return ExecutionResult{}, err
		}
		log.Debug("step invoke completed")
		if step.IsLast() {
			log.Debug("flow completed")
			if err := e.toFlowFinished(ctx, execID, sc, FlowStateCompleted); err != nil {
				return ExecutionResult{}, err
			}
		}
		return Completed(false), nil

	case SignalGoto:
		target, ok := step.flow.Step(signal.Target)
		if !ok {
			return ExecutionResult{}, fmt.Errorf("%w: %s in flow %s", ErrStepNotFound, signal.Target, step.flow.id)
		}
		log.Debug("moving to step", slog.String("target", target.name))
		return e.jump(ctx, execID, sc, target)

	case SignalGoNext:
		target := nearestImmediate(step.Next(), (*Step).Next)
		if target == nil {
			return ExecutionResult{}, fmt.Errorf("%w: no next step after %s", ErrNoNeighbor, step.FullName())
		}
		log.Debug("moving to next step", slog.String("target", target.name))
		return e.jump(ctx, execID, sc, target)

	case SignalGoPrevious:
		target := nearestImmediate(step.Previous(), (*Step).Previous)
		if target == nil {
			return ExecutionResult{}, fmt.Errorf("%w: no previous step before %s", ErrNoNeighbor, step.FullName())
		}
		log.Debug("moving to previous step", slog.String("target", target.name))
		return e.jump(ctx, execID, sc, target)

	case SignalStartFlow:
		log.Debug("starting flow", slog.String("target", signal.Target))
		if err := e.toStep(ctx, execID, sc, StepStateTerminated, nil); err != nil {
			return ExecutionResult{}, err
		}
		state := FlowStateTerminated
		if step.IsLast() {
			state = FlowStateCompleted
		}
		if err := e.toFlowFinished(ctx, execID, sc, state); err != nil {
			return ExecutionResult{}, err
		}
		return FlowJump(signal.Target), nil

	case SignalStopFlow:
		log.Debug("stopping flow")
		if err := e.toStep(ctx, execID, sc, StepStateTerminated, nil); err != nil {
			return ExecutionResult{}, err
		}
		if err := e.toFlowFinished(ctx, execID, sc, FlowStateTerminated); err != nil {
			return ExecutionResult{}, err
		}
		return Stopped(), nil

	case SignalIgnoreEvent:
		if !step.suspendable {
			return e.fail(ctx, execID, sc, fmt.Errorf("%w: %s", ErrIgnoreOutsideAwait, step.FullName()), log)
		}
		log.Debug("input ignored")
		if err := e.toStepSuspended(ctx, execID, sc, true); err != nil {
			return ExecutionResult{}, err
		}
		return Suspended(true), nil

	case SignalFail:
		return e.fail(ctx, execID, sc, signal.Err, log)

	default:
		return e.fail(ctx, execID, sc, fmt.Errorf("unknown signal %s", signal.Kind), log)
	}
}

func (e *Engine) jump(ctx context.Context, execID uuid.UUID, sc *StepContext, target *Step) (ExecutionResult, error) {
	if err := e.toStep(ctx, execID, sc, StepStateTerminated, nil); err != nil {
		return ExecutionResult{}, err
	}
	return StepJump(target), nil
}

func (e *Engine) fail(ctx context.Context, execID uuid.UUID, sc *StepContext, cause error, log *slog.Logger) (ExecutionResult, error) {
	log.Debug("step failed", sl.Err(cause))
	if err := e.toStep(ctx, execID, sc, StepStateFailed, cause); err != nil {
		return ExecutionResult{}, err
	}
	return Failed(cause), nil
}

// nearestImmediate walks from s with move until it finds a non-suspendable step.
func nearestImmediate(s *Step, move func(*Step) *Step) *Step {
	for s != nil && s.suspendable {
		s = move(s)
	}
	return s
}

func (e *Engine) toFlowStarted(ctx context.Context, execID uuid.UUID, sc *StepContext) error {
	state := sc.State()
	state.FlowInfo = &ChatFlowInfo{
		Name:    sc.step.flow.id,
		State:   FlowStateActive,
		Data:    NewFlowData(),
		Started: e.now(),
	}
	state.StepInfo = nil
	state.LastUpdate = e.now()
	return e.publish(ctx, &FlowStarted{StepEvent: e.stepEvent(execID, sc)})
}

func (e *Engine) toFlowFinished(ctx context.Context, execID uuid.UUID, sc *StepContext, fs FlowState) error {
	state := sc.State()
	now := e.now()
	if state.FlowInfo != nil {
		info := *state.FlowInfo
		info.State = fs
		info.Finished = &now
		state.FlowInfo = &info
	}
	state.StepInfo = nil
	state.LastUpdate = now

	se := e.stepEvent(execID, sc)
	if fs == FlowStateCompleted {
		return e.publish(ctx, &FlowCompleted{StepEvent: se})
	}
	return e.publish(ctx, &FlowTerminated{StepEvent: se})
}

func (e *Engine) toStepSuspended(ctx context.Context, execID uuid.UUID, sc *StepContext, ignored bool) error {
	e.setStepInfo(sc, StepStateSuspended, nil)
	return e.publish(ctx, &StepSuspended{StepEvent: e.stepEvent(execID, sc), Ignored: ignored})
}

func (e *Engine) toStep(ctx context.Context, execID uuid.UUID, sc *StepContext, ss StepState, cause error) error {
	e.setStepInfo(sc, ss, cause)
	se := e.stepEvent(execID, sc)
	switch ss {
	case StepStateStarted:
		return e.publish(ctx, &StepStarted{StepEvent: se})
	case StepStateCompleted:
		return e.publish(ctx, &StepCompleted{StepEvent: se})
	case StepStateTerminated:
		return e.publish(ctx, &StepTerminated{StepEvent: se})
	case StepStateFailed:
		return e.publish(ctx, &StepFailed{StepEvent: se, Err: cause})
	default:
		return fmt.Errorf("unexpected step state %s", ss)
	}
}

func (e *Engine) setStepInfo(sc *StepContext, ss StepState, cause error) {
	state := sc.State()
	now := e.now()
	info := &ChatStepInfo{Name: sc.step.name, State: ss, Started: now}
	if prev := state.StepInfo; prev != nil && prev.Name == info.Name && prev.State == StepStateStarted {
		info.Started = prev.Started
	}
	switch ss {
	case StepStateCompleted, StepStateTerminated, StepStateFailed:
		info.Finished = &now
	}
	if cause != nil {
		info.ErrorMessage = cause.Error()
	}
	state.StepInfo = info
	state.LastUpdate = now
}
