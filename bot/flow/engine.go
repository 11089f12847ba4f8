package flow

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"TgFlow/internal/lib/sl"
)

const defaultMaxTransitions = 100

// Engine resolves inbound interactions to flows and drives step chains.
type Engine struct {
	mu             sync.RWMutex
	flows          map[string]*Flow
	order          []string
	bus            EventBus
	localizer      Localizer
	log            *slog.Logger
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	maxTransitions int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithLocalizer(l Localizer) EngineOption {
	return func(e *Engine) {
		e.localizer = l
	}
}

// WithClock replaces time.Now for state timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithSleep replaces the wait used by short messages before they are deleted.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// WithMaxTransitions bounds the number of step invocations in one execution.
func WithMaxTransitions(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTransitions = n
		}
	}
}

// NewEngine creates an engine publishing on bus. When store is not nil the default
// listeners (cleaners, message registrar, state recorder) are registered on bus.
func NewEngine(bus EventBus, store ChatStateStore, log *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		flows:          make(map[string]*Flow),
		bus:            bus,
		log:            log.With(sl.Module("flow.engine")),
		now:            time.Now,
		maxTransitions: defaultMaxTransitions,
	}
	for _, opt := range opts {
		opt(e)
	}
	if store != nil {
		RegisterDefaultListeners(bus, store, log)
	}
	return e
}

// RegisterFlow adds a flow. Empty flows are accepted but never run.
func (e *Engine) RegisterFlow(f *Flow) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.flows[f.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFlow, f.id)
	}
	if len(f.steps) == 0 {
		e.log.Warn("flow has no steps", sl.Flow(f.id))
	}
	e.flows[f.id] = f
	e.order = append(e.order, f.id)
	e.log.Info("registered flow", sl.Flow(f.id), slog.Int("steps", len(f.steps)))
	return nil
}

func (e *Engine) Flow(id string) (*Flow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.flows[id]
	return f, ok
}

// Flows returns the registered flows in registration order.
func (e *Engine) Flows() []*Flow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Flow, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.flows[id])
	}
	return out
}

// Menus returns the menu entries of registered flows sorted by order.
func (e *Engine) Menus() []Menu {
	var menus []Menu
	for _, f := range e.Flows() {
		if m, ok := f.Menu(); ok {
			menus = append(menus, m)
		}
	}
	slices.SortStableFunc(menus, func(a, b Menu) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return menus
}

func (e *Engine) Bus() EventBus {
	return e.bus
}

// Execute handles one inbound interaction. Commands start the named flow; other
// inputs resume the step stored in the chat cursor. Configuration errors and
// listener failures are returned; step failures are reported through events.
func (e *Engine) Execute(ctx context.Context, cc *ChatContext) error {
	if cc == nil || cc.State == nil {
		return fmt.Errorf("execute: missing chat state")
	}
	if cc.Input.Kind == InputCommand {
		return e.startFlow(ctx, cc)
	}
	return e.resume(ctx, cc)
}

func (e *Engine) startFlow(ctx context.Context, cc *ChatContext) error {
	name := cc.Input.Command
	f, ok := e.Flow(name)
	if !ok {
		return e.flowNotFound(ctx, cc, name)
	}
	entry := f.FirstStep()
	if entry == nil {
		return nil
	}
	if _, ok := Acceptable(entry, cc.Input); !ok {
		e.log.Debug("first step does not accept commands", sl.Flow(f.id), sl.Step(entry.name))
		return nil
	}
	return e.run(ctx, cc, entry, "")
}

func (e *Engine) resume(ctx context.Context, cc *ChatContext) error {
	state := cc.State
	if state.FlowInfo == nil || state.StepInfo == nil {
		return nil
	}
	flowName, stepName := state.FlowInfo.Name, state.StepInfo.Name
	if flowName == "" || stepName == "" {
		return nil
	}
	f, ok := e.Flow(flowName)
	if !ok {
		return e.flowNotFound(ctx, cc, flowName)
	}
	step, ok := f.Step(stepName)
	if !ok {
		e.log.Debug("unknown step", sl.Flow(flowName), sl.Step(stepName))
		return e.publish(ctx, &StepNotFound{
			Header:   e.header(uuid.New(), cc),
			Flow:     f,
			StepName: stepName,
		})
	}
	value, ok := Acceptable(step, cc.Input)
	if !ok {
		e.log.Debug("step does not accept input",
			sl.Chat(state.ChatID),
			sl.Step(step.FullName()),
			slog.String("input", cc.Input.Kind.String()),
		)
		return nil
	}
	return e.run(ctx, cc, step, value)
}

func (e *Engine) flowNotFound(ctx context.Context, cc *ChatContext, name string) error {
	e.log.Debug("unknown flow", sl.Flow(name))
	return e.publish(ctx, &FlowNotFound{
		Header:   e.header(uuid.New(), cc),
		FlowName: name,
	})
}

// run drives the chain starting at entry until a step halts it.
func (e *Engine) run(ctx context.Context, cc *ChatContext, entry *Step, value string) error {
	execID := uuid.New()
	sc := &StepContext{
		chat:      cc,
		step:      entry,
		value:     value,
		localizer: e.localizer,
		sleep:     e.sleep,
		log: e.log.With(
			sl.Chat(cc.State.ChatID),
			slog.String("execution_id", execID.String()),
		),
	}
	if err := e.publish(ctx, &ExecutionStarted{StepEvent: e.stepEvent(execID, sc)}); err != nil {
		return err
	}

	var history []ExecutionSnapshot
	for step := entry; step != nil; {
		if len(history) >= e.maxTransitions {
			return fmt.Errorf("%w: %d steps from %s", ErrTooManyTransitions, len(history), entry.FullName())
		}
		result, err := e.invoke(ctx, execID, sc)
		if err != nil {
			return fmt.Errorf("invoking %s: %w", step.FullName(), err)
		}
		history = append(history, ExecutionSnapshot{Step: step, Context: sc, Result: result})
		step = e.nextStep(step, result)
		if step != nil {
			sc = sc.continueWith(step)
		}
	}

	return e.publish(ctx, &ExecutionCompleted{
		Header:  e.header(execID, cc),
		History: history,
	})
}

func (e *Engine) nextStep(step *Step, result ExecutionResult) *Step {
	switch result.kind {
	case ResultCompleted:
		if result.termination {
			return nil
		}
		return step.Next()
	case ResultStepJump:
		return result.target
	case ResultFlowJump:
		f, ok := e.Flow(result.flowName)
		if !ok {
			e.log.Debug("jump to unknown flow", sl.Flow(result.flowName))
			return nil
		}
		return f.FirstStep()
	default:
		return nil
	}
}

func (e *Engine) publish(ctx context.Context, ev Event) error {
	if err := e.bus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Name(), err)
	}
	return nil
}

func (e *Engine) header(execID uuid.UUID, cc *ChatContext) Header {
	return Header{At: e.now(), ExecutionID: execID, Chat: cc}
}

func (e *Engine) stepEvent(execID uuid.UUID, sc *StepContext) StepEvent {
	return StepEvent{Header: e.header(execID, sc.chat), Context: sc}
}
