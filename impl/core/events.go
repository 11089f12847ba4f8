package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"TgFlow/internal/lib/validate"
)

var ErrUnknownEvent = errors.New("unknown event type")

type decoder func(raw json.RawMessage) (any, error)

// EventRegistry maps event names accepted by the admin API to Go types.
type EventRegistry struct {
	mu       sync.RWMutex
	decoders map[string]decoder
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{decoders: make(map[string]decoder)}
}

// RegisterEvent makes E available under name. Payloads are decoded into a value
// of E, which is what flows awaiting E receive, and validated by struct tags.
func RegisterEvent[E any](r *EventRegistry, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[name] = func(raw json.RawMessage) (any, error) {
		var event E
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &event); err != nil {
				return nil, fmt.Errorf("decoding %s payload: %w", name, err)
			}
		}
		if reflect.TypeFor[E]().Kind() == reflect.Struct {
			if err := validate.Struct(event); err != nil {
				return nil, fmt.Errorf("validating %s payload: %w", name, err)
			}
		}
		return event, nil
	}
}

func (r *EventRegistry) Decode(name string, raw json.RawMessage) (any, error) {
	r.mu.RLock()
	dec, ok := r.decoders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return dec(raw)
}

func (r *EventRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
