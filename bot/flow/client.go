package flow

import "context"

const ParseModeMarkdownV2 = "MarkdownV2"

// Option is one inline button: Value is sent back in the callback payload.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OutgoingMessage is a text message with optional inline buttons.
type OutgoingMessage struct {
	Text      string
	ParseMode string
	Buttons   [][]InlineButton
}

// InlineButton is a rendered option carrying its full callback payload.
type InlineButton struct {
	Text string
	Data string
}

type Price struct {
	Label  string
	Amount int64
}

type Invoice struct {
	Payload     string
	Title       string
	Description string
	Currency    string
	Prices      []Price
}

// Client is the outbound messaging capability used by step actions and cleaners.
type Client interface {
	SendMessage(ctx context.Context, chatID int64, msg OutgoingMessage) (int64, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	SendInvoice(ctx context.Context, chatID int64, invoice Invoice) (int64, error)
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage string) error
	AnswerCallback(ctx context.Context, queryID, text string) error
}
