package flow

import "time"

// Wire-level naming conventions shared with callback payloads and persisted cursors.
const (
	PathDelimiter     = "/"
	SuspendedMarker   = "/suspended/"
	TextMarker        = SuspendedMarker + "text"
	CallbackMarker    = SuspendedMarker + "callback"
	PreCheckoutMarker = SuspendedMarker + "pre_checkout"
	PaymentMarker     = SuspendedMarker + "successful_payment"
	EventMarker       = SuspendedMarker + "event"

	// DataDelimiter separates a marker or a callback prefix from its payload.
	DataDelimiter = "|"

	// RunnerNameKey is the chat metadata key holding the runner that owns the chat.
	RunnerNameKey = "__telegramFlowRunnerName__"

	DefaultLanguage = "en"
)

// ShortMessageLifetime is how long a short message stays visible before deletion.
const ShortMessageLifetime = 2000 * time.Millisecond
