package greet

import (
	"context"

	"TgFlow/bot/flow"
)

const (
	ID = "greet"

	StepAsk   = "ask"
	KeyName   = "name"
	menuOrder = 10
)

// New builds the greeting flow: ask for a name, then answer with it.
func New() (*flow.Flow, error) {
	return flow.NewBuilder(ID).
		WithMenu("Say hello", menuOrder).
		Step(StepAsk, ask).
		AwaitText(reply).
		Build()
}

func ask(ctx context.Context, sc *flow.StepContext) flow.Signal {
	_, err := sc.Message(ctx, sc.T("greet.ask"))
	return flow.Fail(err)
}

func reply(ctx context.Context, sc *flow.StepContext) flow.Signal {
	name := sc.Text()
	if name == "" {
		return flow.Failf("empty name")
	}
	if data, err := sc.Data(); err == nil {
		data.Set(KeyName, name)
	}
	_, err := sc.Message(ctx, sc.Tf("greet.reply", map[string]any{KeyName: name}))
	return flow.Fail(err)
}
