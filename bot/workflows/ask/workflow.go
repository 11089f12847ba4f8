package ask

import (
	"context"

	"TgFlow/bot/flow"
	"TgFlow/internal/lib/sl"
)

const (
	ID = "ask"

	StepQuestion = "question"
	menuOrder    = 30
)

// Assistant answers free-form questions within a chat conversation.
type Assistant interface {
	Ask(ctx context.Context, chatID int64, question string) (string, error)
	Forget(chatID int64)
}

type workflow struct {
	assistant Assistant
}

// New builds a flow that keeps answering questions until another command starts a different flow.
func New(assistant Assistant) (*flow.Flow, error) {
	w := &workflow{assistant: assistant}
	b := flow.NewBuilder(ID).
		WithMenu("Ask the assistant", menuOrder).
		Step(StepQuestion, w.prompt)
	return b.AwaitText(w.answer, flow.WithoutFallback()).Build()
}

func (w *workflow) prompt(ctx context.Context, sc *flow.StepContext) flow.Signal {
	w.assistant.Forget(sc.ChatID())
	_, err := sc.Message(ctx, sc.T("ask.prompt"))
	return flow.Fail(err)
}

// answer replies and jumps back to itself, which suspends the chat for the next question.
func (w *workflow) answer(ctx context.Context, sc *flow.StepContext) flow.Signal {
	answer, err := w.assistant.Ask(ctx, sc.ChatID(), sc.Text())
	if err != nil {
		sc.Logger().Warn("assistant failed", sl.Chat(sc.ChatID()), sl.Err(err))
		answer = sc.T("ask.unavailable")
		if _, err = sc.Message(ctx, answer); err != nil {
			return flow.Fail(err)
		}
		return flow.Goto(sc.Step().Name())
	}
	if _, err = sc.Message(ctx, answer, flow.PlainText()); err != nil {
		return flow.Fail(err)
	}
	return flow.Goto(sc.Step().Name())
}
