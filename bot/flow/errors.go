package flow

import (
	"errors"
	"fmt"
)

var (
	ErrBlankStepName    = errors.New("step name cannot be blank")
	ErrDuplicateStep    = errors.New("duplicate step name")
	ErrInvalidFlowID    = errors.New("flow id must be non-blank and contain no whitespace")
	ErrAwaitWithoutStep = errors.New("await requires a preceding step")

	// ErrStepNotFound and ErrNoNeighbor are configuration errors: they escape Execute
	// instead of becoming a Failed result.
	ErrStepNotFound = errors.New("step does not exist")
	ErrNoNeighbor   = errors.New("no eligible neighbor step")

	ErrNoFlowData = errors.New("no flow data exist in current chat state")
	ErrNoClient   = errors.New("no client attached to context")
)

// PanicError carries a value recovered from a panicking step action.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step action panicked: %v", e.Value)
}

var (
	ErrTooManyTransitions = errors.New("too many step transitions in one execution")
	ErrDuplicateFlow      = errors.New("flow already registered")
	ErrIgnoreOutsideAwait = errors.New("event ignored outside an awaiting step")
)
