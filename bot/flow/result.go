package flow

import "fmt"

// ResultKind tags an ExecutionResult.
type ResultKind int

const (
	ResultCompleted ResultKind = iota
	ResultSuspended
	ResultStepJump
	ResultFlowJump
	ResultStopFlow
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultCompleted:
		return "completed"
	case ResultSuspended:
		return "suspended"
	case ResultStepJump:
		return "step_jump"
	case ResultFlowJump:
		return "flow_jump"
	case ResultStopFlow:
		return "stop_flow"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(k))
	}
}

// ExecutionResult is the outcome of one step invocation. Only the fields of its
// kind are set; build values with the constructors.
type ExecutionResult struct {
	kind        ResultKind
	termination bool
	ignored     bool
	target      *Step
	flowName    string
	err         error
}

func Completed(termination bool) ExecutionResult {
	return ExecutionResult{kind: ResultCompleted, termination: termination}
}

func Suspended(ignored bool) ExecutionResult {
	return ExecutionResult{kind: ResultSuspended, ignored: ignored}
}

func StepJump(target *Step) ExecutionResult {
	return ExecutionResult{kind: ResultStepJump, target: target}
}

func FlowJump(flowName string) ExecutionResult {
	return ExecutionResult{kind: ResultFlowJump, flowName: flowName}
}

func Stopped() ExecutionResult {
	return ExecutionResult{kind: ResultStopFlow}
}

func Failed(err error) ExecutionResult {
	return ExecutionResult{kind: ResultFailed, err: err}
}

func (r ExecutionResult) Kind() ResultKind {
	return r.kind
}

// Termination is set on Completed results that end the chain.
func (r ExecutionResult) Termination() bool {
	return r.termination
}

// Ignored is set on Suspended results produced by IgnoreEvent.
func (r ExecutionResult) Ignored() bool {
	return r.ignored
}

// Target is the step of a StepJump.
func (r ExecutionResult) Target() *Step {
	return r.target
}

// FlowName is the flow of a FlowJump.
func (r ExecutionResult) FlowName() string {
	return r.flowName
}

// Err is the action error of a Failed result.
func (r ExecutionResult) Err() error {
	return r.err
}

func (r ExecutionResult) String() string {
	switch r.kind {
	case ResultStepJump:
		return fmt.Sprintf("%s(%s)", r.kind, r.target.Name())
	case ResultFlowJump:
		return fmt.Sprintf("%s(%s)", r.kind, r.flowName)
	case ResultFailed:
		return fmt.Sprintf("%s(%v)", r.kind, r.err)
	default:
		return r.kind.String()
	}
}

// ExecutionSnapshot records one step invocation of a chain.
type ExecutionSnapshot struct {
	Step    *Step
	Context *StepContext
	Result  ExecutionResult
}
