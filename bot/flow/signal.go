package flow

import (
	"context"
	"fmt"
)

// SignalKind tells the engine how a step action ended.
type SignalKind int

const (
	SignalContinue SignalKind = iota
	SignalGoto
	SignalGoNext
	SignalGoPrevious
	SignalStartFlow
	SignalStopFlow
	SignalIgnoreEvent
	SignalFail
)

func (k SignalKind) String() string {
	switch k {
	case SignalContinue:
		return "continue"
	case SignalGoto:
		return "goto"
	case SignalGoNext:
		return "go_next"
	case SignalGoPrevious:
		return "go_previous"
	case SignalStartFlow:
		return "start_flow"
	case SignalStopFlow:
		return "stop_flow"
	case SignalIgnoreEvent:
		return "ignore_event"
	case SignalFail:
		return "fail"
	default:
		return fmt.Sprintf("signal(%d)", int(k))
	}
}

// Signal is the outcome of a step action. Target holds the step name for Goto and
// the flow name for StartFlow; Err is set only for Fail.
type Signal struct {
	Kind   SignalKind
	Target string
	Err    error
}

// Action is the body of a step.
type Action func(ctx context.Context, sc *StepContext) Signal

// Continue completes the step normally.
func Continue() Signal {
	return Signal{Kind: SignalContinue}
}

// Goto jumps to the named step of the current flow. A name that matches no
// step, blank ones included, is reported by Execute as ErrStepNotFound.
func Goto(stepName string) Signal {
	return Signal{Kind: SignalGoto, Target: stepName}
}

func GoNext() Signal {
	return Signal{Kind: SignalGoNext}
}

func GoPrevious() Signal {
	return Signal{Kind: SignalGoPrevious}
}

// StartFlow ends the current flow and starts the named one.
func StartFlow(flowName string) Signal {
	return Signal{Kind: SignalStartFlow, Target: flowName}
}

func StopFlow() Signal {
	return Signal{Kind: SignalStopFlow}
}

// IgnoreEvent leaves the current suspendable step waiting for another input.
func IgnoreEvent() Signal {
	return Signal{Kind: SignalIgnoreEvent}
}

// Fail ends the step with an error. A nil error is treated as Continue.
func Fail(err error) Signal {
	if err == nil {
		return Continue()
	}
	return Signal{Kind: SignalFail, Err: err}
}

// Failf is Fail with a formatted error.
func Failf(format string, args ...any) Signal {
	return Fail(fmt.Errorf(format, args...))
}

// IsControl reports whether the signal redirects or halts the chain rather than reporting a failure.
func (s Signal) IsControl() bool {
	return s.Kind != SignalFail
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalGoto, SignalStartFlow:
		return s.Kind.String() + "(" + s.Target + ")"
	case SignalFail:
		return s.Kind.String() + "(" + s.Err.Error() + ")"
	default:
		return s.Kind.String()
	}
}
