package entity

import (
	"encoding/json"
	"net/http"

	"TgFlow/internal/lib/validate"
)

// EventRequest asks to emit a custom event into a chat. Type is the name the
// event was registered under, Payload is decoded into the registered type.
type EventRequest struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (e *EventRequest) Bind(_ *http.Request) error {
	return validate.Struct(e)
}
