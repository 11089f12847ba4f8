package flow

import (
	"strings"
	"unicode"
)

// Menu describes how a flow is advertised in the bot command list.
type Menu struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// NewMenu returns a menu entry whose description defaults to the command.
func NewMenu(command string) Menu {
	return Menu{Command: command, Description: command}
}

// Flow is a statically declared ordered sequence of steps. The flow id doubles as
// the command that starts it.
type Flow struct {
	id    string
	menu  *Menu
	steps []*Step
	index map[string]int
}

func (f *Flow) ID() string {
	return f.id
}

// Menu returns the menu entry, if the flow has one.
func (f *Flow) Menu() (Menu, bool) {
	if f.menu == nil {
		return Menu{}, false
	}
	return *f.menu, true
}

// Steps returns the steps in declaration order.
func (f *Flow) Steps() []*Step {
	out := make([]*Step, len(f.steps))
	copy(out, f.steps)
	return out
}

func (f *Flow) Len() int {
	return len(f.steps)
}

// Step looks a step up by name.
func (f *Flow) Step(name string) (*Step, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.steps[i], true
}

func (f *Flow) FirstStep() *Step {
	if len(f.steps) == 0 {
		return nil
	}
	return f.steps[0]
}

func (f *Flow) LastStep() *Step {
	if len(f.steps) == 0 {
		return nil
	}
	return f.steps[len(f.steps)-1]
}

func (f *Flow) String() string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.name
	}
	return f.id + "[" + strings.Join(names, ", ") + "]"
}

func validFlowID(id string) bool {
	return id != "" && !strings.ContainsFunc(id, unicode.IsSpace)
}
