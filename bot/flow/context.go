package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TgFlow/internal/lib/sl"
)

// Localizer resolves text keys for a language.
type Localizer interface {
	Text(lang, key string, params map[string]any) string
}

// StepContext is what a step action sees. The first step of a chain receives the
// inbound input; later steps of the same chain receive a continuation of it.
type StepContext struct {
	chat         *ChatContext
	step         *Step
	continuation bool
	value        string
	localizer    Localizer
	log          *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func (sc *StepContext) Input() Input {
	return sc.chat.Input
}

func (sc *StepContext) State() *ChatState {
	return sc.chat.State
}

func (sc *StepContext) Chat() *ChatContext {
	return sc.chat
}

func (sc *StepContext) Step() *Step {
	return sc.step
}

func (sc *StepContext) Client() Client {
	return sc.chat.Client
}

func (sc *StepContext) ChatID() int64 {
	return sc.chat.State.ChatID
}

// Continuation reports whether the step was reached from another step of the chain.
func (sc *StepContext) Continuation() bool {
	return sc.continuation
}

// Resumed reports whether the context carries an input able to resume a suspended step.
func (sc *StepContext) Resumed() bool {
	return !sc.continuation && sc.chat.Input.Kind.Resumable()
}

// Value is the option value picked by the user for callback inputs.
func (sc *StepContext) Value() string {
	return sc.value
}

// Text is the free text sent by the user.
func (sc *StepContext) Text() string {
	return sc.chat.Input.Text
}

func (sc *StepContext) Logger() *slog.Logger {
	if sc.log == nil {
		return slog.Default()
	}
	return sc.log
}

// Data returns the current flow's data bag.
func (sc *StepContext) Data() (*FlowData, error) {
	data := sc.State().FlowData()
	if data == nil {
		return nil, ErrNoFlowData
	}
	return data, nil
}

// T resolves a text key in the chat language.
func (sc *StepContext) T(key string) string {
	return sc.Tf(key, nil)
}

// Tf resolves a text key in the chat language substituting {name} params.
func (sc *StepContext) Tf(key string, params map[string]any) string {
	if sc.localizer == nil {
		return key
	}
	return sc.localizer.Text(sc.State().Language, key, params)
}

// continueWith keeps the kind and message id of the inbound input but drops its
// payload, so steps reached by a jump never consume the user's answer twice.
func (sc *StepContext) continueWith(step *Step) *StepContext {
	next := *sc
	next.chat = &ChatContext{
		Input:  Input{Kind: sc.chat.Input.Kind, MessageID: sc.chat.Input.MessageID},
		State:  sc.chat.State,
		Client: sc.chat.Client,
	}
	next.step = step
	next.continuation = true
	next.value = ""
	next.log = sc.log
	return &next
}

func (sc *StepContext) client() (Client, error) {
	if sc.chat.Client == nil {
		return nil, ErrNoClient
	}
	return sc.chat.Client, nil
}

// record stores a message id under the current step.
func (sc *StepContext) record(id MessageID) {
	if data := sc.State().FlowData(); data != nil {
		data.AddMessage(sc.step.name, id)
	}
}

// MessageOption tunes Message and Options.
type MessageOption func(*messageOptions)

type messageOptions struct {
	parseMode string
	record    bool
}

// PlainText sends the text without a parse mode.
func PlainText() MessageOption {
	return func(o *messageOptions) {
		o.parseMode = ""
	}
}

// Unrecorded keeps the message out of flow cleanup.
func Unrecorded() MessageOption {
	return func(o *messageOptions) {
		o.record = false
	}
}

func applyMessageOptions(opts []MessageOption) messageOptions {
	o := messageOptions{parseMode: ParseModeMarkdownV2, record: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Message sends text to the chat and records the message for cleanup.
func (sc *StepContext) Message(ctx context.Context, text string, opts ...MessageOption) (MessageID, error) {
	return sc.send(ctx, OutgoingMessage{Text: text}, opts)
}

func (sc *StepContext) send(ctx context.Context, msg OutgoingMessage, opts []MessageOption) (MessageID, error) {
	client, err := sc.client()
	if err != nil {
		return MessageID{}, err
	}
	o := applyMessageOptions(opts)
	msg.ParseMode = o.parseMode
	sc.Logger().Debug("sending message", sl.Chat(sc.ChatID()))
	id, err := client.SendMessage(ctx, sc.ChatID(), msg)
	if err != nil {
		return MessageID{}, fmt.Errorf("sending message: %w", err)
	}
	mid := ServerMessageID(id)
	if o.record {
		sc.record(mid)
	}
	return mid, nil
}

// ShortMessage shows text for ShortMessageLifetime and deletes it.
func (sc *StepContext) ShortMessage(ctx context.Context, text string, opts ...MessageOption) error {
	return sc.ShortMessageFor(ctx, ShortMessageLifetime, text, opts...)
}

// ShortMessageFor shows text for d and deletes it.
func (sc *StepContext) ShortMessageFor(ctx context.Context, d time.Duration, text string, opts ...MessageOption) error {
	mid, err := sc.Message(ctx, text, append(opts, Unrecorded())...)
	if err != nil {
		return err
	}
	sleep := sc.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	if err := sleep(ctx, d); err != nil {
		return err
	}
	return sc.chat.Client.DeleteMessage(ctx, sc.ChatID(), mid.ID)
}

// SendInvoice sends a payment invoice and records it for cleanup.
func (sc *StepContext) SendInvoice(ctx context.Context, invoice Invoice) (MessageID, error) {
	client, err := sc.client()
	if err != nil {
		return MessageID{}, err
	}
	id, err := client.SendInvoice(ctx, sc.ChatID(), invoice)
	if err != nil {
		return MessageID{}, fmt.Errorf("sending invoice: %w", err)
	}
	mid := ServerMessageID(id)
	sc.record(mid)
	return mid, nil
}

// ConfirmCheckout approves the pending pre-checkout query.
func (sc *StepContext) ConfirmCheckout(ctx context.Context) error {
	return sc.answerCheckout(ctx, true, "")
}

// RejectCheckout declines the pending pre-checkout query with a reason shown to the user.
func (sc *StepContext) RejectCheckout(ctx context.Context, reason string) error {
	return sc.answerCheckout(ctx, false, reason)
}

func (sc *StepContext) answerCheckout(ctx context.Context, ok bool, reason string) error {
	q := sc.chat.Input.PreCheckout
	if q == nil {
		return fmt.Errorf("no pre-checkout query in %s input", sc.chat.Input.Kind)
	}
	client, err := sc.client()
	if err != nil {
		return err
	}
	return client.AnswerPreCheckout(ctx, q.ID, ok, reason)
}

// AnswerCallback acknowledges the pending callback query.
func (sc *StepContext) AnswerCallback(ctx context.Context, text string) error {
	cb := sc.chat.Input.Callback
	if cb == nil {
		return nil
	}
	client, err := sc.client()
	if err != nil {
		return err
	}
	return client.AnswerCallback(ctx, cb.ID, text)
}

// ClearStepMessages deletes the messages recorded under stepName.
func (sc *StepContext) ClearStepMessages(ctx context.Context, stepName string) error {
	data := sc.State().FlowData()
	if data == nil {
		return nil
	}
	return sc.deleteMessages(ctx, data.TakeMessages(stepName))
}

// ClearPreviousStepMessages deletes the messages of the step declared before the current one.
func (sc *StepContext) ClearPreviousStepMessages(ctx context.Context) error {
	prev := sc.step.Previous()
	if prev == nil {
		return nil
	}
	return sc.ClearStepMessages(ctx, prev.name)
}

// ClearFlowMessages deletes every message recorded by the current flow.
func (sc *StepContext) ClearFlowMessages(ctx context.Context) error {
	data := sc.State().FlowData()
	if data == nil {
		return nil
	}
	ids := data.AllMessages()
	data.ClearMessages()
	return sc.deleteMessages(ctx, ids)
}

func (sc *StepContext) deleteMessages(ctx context.Context, ids []MessageID) error {
	client, err := sc.client()
	if err != nil {
		return err
	}
	deleteMessages(ctx, client, sc.ChatID(), ids, sc.Logger())
	return nil
}

func deleteMessages(ctx context.Context, client Client, chatID int64, ids []MessageID, log *slog.Logger) {
	for _, id := range ids {
		if err := client.DeleteMessage(ctx, chatID, id.ID); err != nil {
			// old messages cannot be deleted by bots; keep going
			log.Debug("delete message",
				sl.Chat(chatID),
				slog.String("message_id", id.String()),
				sl.Err(err),
			)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
