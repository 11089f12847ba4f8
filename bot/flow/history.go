package flow

// Transition is one published lifecycle change, identified by the event name and
// the step or flow it concerns.
type Transition struct {
	Event string
	Flow  string
	Step  string
}

// TransitionOf maps a published event to its transition. Events that are not
// state transitions return false.
func TransitionOf(e Event) (Transition, bool) {
	var se StepEvent
	switch ev := e.(type) {
	case *FlowStarted:
		se = ev.StepEvent
	case *FlowCompleted:
		se = ev.StepEvent
	case *FlowTerminated:
		se = ev.StepEvent
	case *StepStarted:
		se = ev.StepEvent
	case *StepCompleted:
		se = ev.StepEvent
	case *StepSuspended:
		se = ev.StepEvent
	case *StepTerminated:
		se = ev.StepEvent
	case *StepFailed:
		se = ev.StepEvent
	default:
		return Transition{}, false
	}
	step := se.Step()
	t := Transition{Event: e.Name(), Flow: step.Flow().ID()}
	switch e.(type) {
	case *FlowStarted, *FlowCompleted, *FlowTerminated:
	default:
		t.Step = step.Name()
	}
	return t, true
}

// ReplayTransitions rebuilds the ordered lifecycle transitions implied by a chain
// history. For any execution it equals the transitions published on the bus.
func ReplayTransitions(history []ExecutionSnapshot) []Transition {
	var out []Transition
	for _, snap := range history {
		step := snap.Step
		flowID := step.Flow().ID()
		flowT := func(name string) Transition {
			return Transition{Event: name, Flow: flowID}
		}
		stepT := func(name string) Transition {
			return Transition{Event: name, Flow: flowID, Step: step.Name()}
		}

		if step.IsFirst() {
			out = append(out, flowT("flow_started"))
		}
		r := snap.Result
		if r.kind == ResultSuspended && !r.ignored {
			out = append(out, stepT("step_suspended"))
			continue
		}
		out = append(out, stepT("step_started"))
		switch r.kind {
		case ResultCompleted:
			out = append(out, stepT("step_completed"))
			if step.IsLast() {
				out = append(out, flowT("flow_completed"))
			}
		case ResultSuspended:
			out = append(out, stepT("step_suspended"))
		case ResultStepJump:
			out = append(out, stepT("step_terminated"))
		case ResultFlowJump:
			out = append(out, stepT("step_terminated"))
			if step.IsLast() {
				out = append(out, flowT("flow_completed"))
			} else {
				out = append(out, flowT("flow_terminated"))
			}
		case ResultStopFlow:
			out = append(out, stepT("step_terminated"), flowT("flow_terminated"))
		case ResultFailed:
			out = append(out, stepT("step_failed"))
		}
	}
	return out
}
