package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Listener priorities used by the default listeners. Higher runs first.
const (
	PriorityHigh    = 100
	PriorityDefault = 0
	PriorityLow     = -100
)

// Listener consumes events it supports. Implementations must be comparable
// (usually pointers) so that they can be unregistered.
type Listener interface {
	Supports(e Event) bool
	Priority() int
	OnEvent(ctx context.Context, e Event) error
}

// EventBus delivers events to listeners synchronously.
type EventBus interface {
	Register(l Listener)
	Unregister(l Listener)
	Publish(ctx context.Context, e Event) error
}

type busEntry struct {
	listener Listener
	seq      uint64
}

// Bus is the default EventBus. Publish returns after every supporting listener ran;
// listeners run by descending priority, then by registration order.
type Bus struct {
	mu      sync.RWMutex
	entries []busEntry
	seq     uint64
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Register(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.entries = append(b.entries, busEntry{listener: l, seq: b.seq})
	slices.SortStableFunc(b.entries, func(x, y busEntry) int {
		if px, py := x.listener.Priority(), y.listener.Priority(); px != py {
			return py - px
		}
		if x.seq < y.seq {
			return -1
		}
		if x.seq > y.seq {
			return 1
		}
		return 0
	})
}

func (b *Bus) Unregister(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = slices.DeleteFunc(b.entries, func(e busEntry) bool {
		return e.listener == l
	})
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	entries := slices.Clone(b.entries)
	b.mu.RUnlock()

	var errs []error
	for _, entry := range entries {
		if !entry.listener.Supports(e) {
			continue
		}
		if err := entry.listener.OnEvent(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s listener: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

var _ EventBus = (*Bus)(nil)

// FuncListener adapts a typed callback to Listener.
type FuncListener[E Event] struct {
	priority int
	fn       func(ctx context.Context, e E) error
}

// On returns a listener for events of type E with default priority.
func On[E Event](fn func(ctx context.Context, e E) error) *FuncListener[E] {
	return OnWithPriority(PriorityDefault, fn)
}

func OnWithPriority[E Event](priority int, fn func(ctx context.Context, e E) error) *FuncListener[E] {
	return &FuncListener[E]{priority: priority, fn: fn}
}

func (l *FuncListener[E]) Supports(e Event) bool {
	_, ok := e.(E)
	return ok
}

func (l *FuncListener[E]) Priority() int {
	return l.priority
}

func (l *FuncListener[E]) OnEvent(ctx context.Context, e Event) error {
	typed, ok := e.(E)
	if !ok {
		return nil
	}
	return l.fn(ctx, typed)
}
