package flow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type stepDecl struct {
	name        string
	suspendable bool
	action      Action
}

// Builder collects step declarations; Build turns them into an immutable Flow.
type Builder struct {
	id    string
	menu  *Menu
	decls []stepDecl
	errs  []error
}

// NewBuilder starts a flow declaration. The id is also the command starting the flow.
func NewBuilder(id string) *Builder {
	return &Builder{id: id}
}

// WithMenu advertises the flow in the bot command list.
func (b *Builder) WithMenu(description string, order int) *Builder {
	menu := NewMenu(b.id)
	if description != "" {
		menu.Description = description
	}
	menu.Order = order
	b.menu = &menu
	return b
}

// Step declares an immediate step.
func (b *Builder) Step(name string, action Action) *Builder {
	b.decls = append(b.decls, stepDecl{name: name, action: action})
	return b
}

type awaitOptions struct {
	fallback     bool
	fallbackStep string
}

// AwaitOption tunes a suspendable step declaration.
type AwaitOption func(*awaitOptions)

// WithoutFallback lets failures of the awaiting action fail the step.
func WithoutFallback() AwaitOption {
	return func(o *awaitOptions) {
		o.fallback = false
	}
}

// FallbackTo overrides the step re-entered when the awaiting action fails.
func FallbackTo(stepName string) AwaitOption {
	return func(o *awaitOptions) {
		o.fallback = true
		o.fallbackStep = stepName
	}
}

// AwaitText suspends the flow until the user sends free text.
func (b *Builder) AwaitText(action Action, opts ...AwaitOption) *Builder {
	return b.await(TextMarker, action, opts)
}

// AwaitCallback suspends the flow until the user picks an inline option.
func (b *Builder) AwaitCallback(action Action, opts ...AwaitOption) *Builder {
	return b.await(CallbackMarker, action, opts)
}

// AwaitPreCheckout suspends the flow until the payment provider asks for confirmation.
func (b *Builder) AwaitPreCheckout(action Action, opts ...AwaitOption) *Builder {
	return b.await(PreCheckoutMarker, action, opts)
}

// AwaitPayment suspends the flow until a successful payment arrives. A pre-checkout
// step confirming the checkout is inserted when the flow does not declare one.
func (b *Builder) AwaitPayment(action Action, opts ...AwaitOption) *Builder {
	if n := len(b.decls); n > 0 && !strings.HasSuffix(b.decls[n-1].name, PreCheckoutMarker) {
		b.await(PreCheckoutMarker, confirmCheckout, []AwaitOption{WithoutFallback()})
	}
	return b.await(PaymentMarker, action, opts)
}

// AwaitEvent suspends the flow until a custom event of type E is emitted into the chat.
func AwaitEvent[E any](b *Builder, action func(ctx context.Context, sc *StepContext, event E) Signal, opts ...AwaitOption) *Builder {
	marker := EventMarker + DataDelimiter + TypeName(reflect.TypeFor[E]())
	return b.await(marker, func(ctx context.Context, sc *StepContext) Signal {
		event, ok := sc.Input().Event.(E)
		if !ok {
			return IgnoreEvent()
		}
		return action(ctx, sc, event)
	}, opts)
}

func (b *Builder) await(marker string, action Action, opts []AwaitOption) *Builder {
	if len(b.decls) == 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrAwaitWithoutStep, marker))
		return b
	}
	o := awaitOptions{fallback: true}
	for _, opt := range opts {
		opt(&o)
	}
	base := baseName(b.decls[len(b.decls)-1].name)
	if o.fallback {
		target := o.fallbackStep
		if target == "" {
			target = base
		}
		action = WithFallback(target, action)
	}
	b.decls = append(b.decls, stepDecl{
		name:        base + marker,
		suspendable: true,
		action:      action,
	})
	return b
}

// Build validates the declarations and assembles the flow.
func (b *Builder) Build() (*Flow, error) {
	errs := append([]error(nil), b.errs...)
	if !validFlowID(b.id) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFlowID, b.id))
	}

	f := &Flow{
		id:    b.id,
		menu:  b.menu,
		steps: make([]*Step, 0, len(b.decls)),
		index: make(map[string]int, len(b.decls)),
	}
	for _, d := range b.decls {
		if isBlank(d.name) {
			errs = append(errs, ErrBlankStepName)
			continue
		}
		if _, ok := f.index[d.name]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateStep, d.name))
			continue
		}
		step := &Step{
			name:        d.name,
			suspendable: d.suspendable,
			action:      d.action,
			index:       len(f.steps),
			flow:        f,
		}
		f.index[d.name] = step.index
		f.steps = append(f.steps, step)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("building flow %q: %w", b.id, errors.Join(errs...))
	}
	return f, nil
}

// MustBuild is Build for static flow declarations.
func (b *Builder) MustBuild() *Flow {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// TypeName is the qualified name used in event markers.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func confirmCheckout(ctx context.Context, sc *StepContext) Signal {
	return Fail(sc.ConfirmCheckout(ctx))
}
