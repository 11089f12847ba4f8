package flow

import (
	"context"
	"log/slog"

	"TgFlow/internal/lib/sl"
)

// WithFallback wraps an action so that a failure jumps back to stepName instead of
// failing the step. Every other signal passes through unchanged.
func WithFallback(stepName string, action Action) Action {
	return func(ctx context.Context, sc *StepContext) Signal {
		signal := runAction(ctx, action, sc)
		if signal.Kind != SignalFail {
			return signal
		}
		sc.Logger().Debug("step fallback",
			slog.String("target", stepName),
			sl.Err(signal.Err),
		)
		return Goto(stepName)
	}
}

// runAction invokes an action, turning a panic into a Fail signal.
func runAction(ctx context.Context, action Action, sc *StepContext) (signal Signal) {
	defer func() {
		if r := recover(); r != nil {
			signal = Fail(&PanicError{Value: r})
		}
	}()
	if action == nil {
		return Continue()
	}
	return action(ctx, sc)
}
