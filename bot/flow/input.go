package flow

import "fmt"

// InputKind classifies an inbound interaction.
type InputKind int

const (
	InputCommand InputKind = iota
	InputText
	InputCallback
	InputPreCheckout
	InputPayment
	InputEvent
)

func (k InputKind) String() string {
	switch k {
	case InputCommand:
		return "command"
	case InputText:
		return "text"
	case InputCallback:
		return "callback"
	case InputPreCheckout:
		return "pre_checkout"
	case InputPayment:
		return "payment"
	case InputEvent:
		return "event"
	default:
		return fmt.Sprintf("input(%d)", int(k))
	}
}

// Resumable reports whether inputs of this kind resume a suspended step.
func (k InputKind) Resumable() bool {
	return k != InputCommand
}

type Callback struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

type PreCheckout struct {
	ID          string `json:"id"`
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"total_amount"`
	Payload     string `json:"payload"`
}

type Payment struct {
	Currency         string `json:"currency"`
	TotalAmount      int64  `json:"total_amount"`
	Payload          string `json:"payload"`
	TelegramChargeID string `json:"telegram_charge_id"`
	ProviderChargeID string `json:"provider_charge_id"`
}

// Input is a typed inbound interaction. Only the fields of Kind are set.
type Input struct {
	Kind        InputKind
	MessageID   int64
	Command     string
	Args        []string
	Text        string
	Callback    *Callback
	PreCheckout *PreCheckout
	Payment     *Payment
	Event       any
}

func CommandInput(command string, args ...string) Input {
	return Input{Kind: InputCommand, Command: command, Args: args}
}

func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

func CallbackInput(id, data string) Input {
	return Input{Kind: InputCallback, Callback: &Callback{ID: id, Data: data}}
}

func PreCheckoutInput(q PreCheckout) Input {
	return Input{Kind: InputPreCheckout, PreCheckout: &q}
}

func PaymentInput(p Payment) Input {
	return Input{Kind: InputPayment, Payment: &p}
}

func EventInput(event any) Input {
	return Input{Kind: InputEvent, Event: event}
}

// WithMessageID attaches the id of the user message carrying the input.
func (in Input) WithMessageID(id int64) Input {
	in.MessageID = id
	return in
}

// ChatContext is one inbound interaction bound to its chat state and client.
type ChatContext struct {
	Input  Input
	State  *ChatState
	Client Client
}

func NewChatContext(input Input, state *ChatState, client Client) *ChatContext {
	return &ChatContext{Input: input, State: state, Client: client}
}
