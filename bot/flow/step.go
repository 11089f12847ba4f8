package flow

import "strings"

// Step is one unit of flow logic. Steps are created by Builder.Build and are
// immutable afterwards; neighbors are resolved through the owning flow.
type Step struct {
	name        string
	suspendable bool
	action      Action
	index       int
	flow        *Flow
}

func (s *Step) Name() string {
	return s.name
}

// FullName is the flow id and step name joined by PathDelimiter.
func (s *Step) FullName() string {
	if s.flow == nil {
		return s.name
	}
	return s.flow.id + PathDelimiter + s.name
}

func (s *Step) Suspendable() bool {
	return s.suspendable
}

func (s *Step) Flow() *Flow {
	return s.flow
}

func (s *Step) IsFirst() bool {
	return s.flow != nil && s.index == 0
}

func (s *Step) IsLast() bool {
	return s.flow != nil && s.index == len(s.flow.steps)-1
}

func (s *Step) Next() *Step {
	if s.flow == nil || s.index+1 >= len(s.flow.steps) {
		return nil
	}
	return s.flow.steps[s.index+1]
}

func (s *Step) Previous() *Step {
	if s.flow == nil || s.index == 0 {
		return nil
	}
	return s.flow.steps[s.index-1]
}

// BaseName is the step name without its suspension marker.
func (s *Step) BaseName() string {
	return baseName(s.name)
}

// Marker returns the suspension marker suffix of the step, or an empty string.
func (s *Step) Marker() string {
	if i := strings.Index(s.name, SuspendedMarker); i >= 0 {
		return s.name[i:]
	}
	return ""
}

func (s *Step) String() string {
	return s.FullName()
}

func baseName(name string) string {
	if i := strings.Index(name, SuspendedMarker); i >= 0 {
		return name[:i]
	}
	return name
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
