package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TgFlow/bot/flow"
)

func TestBuilderNamesSuspendableSteps(t *testing.T) {
	f := flow.NewBuilder("shop").
		Step("pick", noop).
		AwaitCallback(noop).
		Step("pay", noop).
		AwaitPayment(noop).
		Step("thanks", noop).
		MustBuild()

	var names []string
	for _, s := range f.Steps() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"pick",
		"pick/suspended/callback",
		"pay",
		"pay/suspended/pre_checkout",
		"pay/suspended/successful_payment",
		"thanks",
	}, names)

	step, ok := f.Step("pay/suspended/successful_payment")
	require.True(t, ok)
	assert.True(t, step.Suspendable())
	assert.Equal(t, "pay", step.BaseName())
	assert.Equal(t, "/suspended/successful_payment", step.Marker())
	assert.Equal(t, "shop/pay/suspended/successful_payment", step.FullName())
	assert.Equal(t, "thanks", step.Next().Name())
	assert.Equal(t, "pay/suspended/pre_checkout", step.Previous().Name())
	assert.True(t, f.FirstStep().IsFirst())
	assert.True(t, f.LastStep().IsLast())
	assert.Nil(t, f.LastStep().Next())
	assert.Nil(t, f.FirstStep().Previous())
}

func TestBuilderKeepsDeclaredPreCheckout(t *testing.T) {
	f := flow.NewBuilder("shop").
		Step("pay", noop).
		AwaitPreCheckout(noop).
		AwaitPayment(noop).
		MustBuild()
	assert.Equal(t, 3, f.Len())
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *flow.Builder
		err  error
	}{
		{"blank step", flow.NewBuilder("f").Step(" ", noop), flow.ErrBlankStepName},
		{"duplicate step", flow.NewBuilder("f").Step("a", noop).Step("a", noop), flow.ErrDuplicateStep},
		{"await first", flow.NewBuilder("f").AwaitText(noop), flow.ErrAwaitWithoutStep},
		{"blank id", flow.NewBuilder("").Step("a", noop), flow.ErrInvalidFlowID},
		{"id with space", flow.NewBuilder("my flow").Step("a", noop), flow.ErrInvalidFlowID},
		{"duplicate await", flow.NewBuilder("f").Step("a", noop).AwaitText(noop).AwaitText(noop), flow.ErrDuplicateStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.b.Build()
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, f)
			assert.Panics(t, func() { tt.b.MustBuild() })
		})
	}
}

func TestEmptyFlowIsRegisteredButNeverRuns(t *testing.T) {
	f := flow.NewBuilder("empty").MustBuild()
	env := newTestEnv(t, f)

	require.NoError(t, env.send(t, 1, flow.CommandInput("empty")))
	assert.Empty(t, env.names())
	assert.Nil(t, f.FirstStep())
}

func TestRegisterDuplicateFlow(t *testing.T) {
	f := flow.NewBuilder("f").Step("a", noop).MustBuild()
	env := newTestEnv(t, f)
	assert.ErrorIs(t, env.engine.RegisterFlow(f), flow.ErrDuplicateFlow)
}

func TestMenusSortedByOrder(t *testing.T) {
	env := newTestEnv(t,
		flow.NewBuilder("shop").WithMenu("Shop", 20).Step("a", noop).MustBuild(),
		flow.NewBuilder("hidden").Step("a", noop).MustBuild(),
		flow.NewBuilder("start").WithMenu("Start", 10).Step("a", noop).MustBuild(),
	)

	menus := env.engine.Menus()
	require.Len(t, menus, 2)
	assert.Equal(t, "start", menus[0].Command)
	assert.Equal(t, "Start", menus[0].Description)
	assert.Equal(t, "shop", menus[1].Command)
	assert.Len(t, env.engine.Flows(), 3)
}

func TestPaymentFlow(t *testing.T) {
	var paid *flow.Payment
	f := flow.NewBuilder("shop").
		Step("pay", func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			_, err := sc.SendInvoice(ctx, flow.Invoice{
				Payload:  "order-1",
				Title:    "Tea",
				Currency: "EUR",
				Prices:   []flow.Price{{Label: "Tea", Amount: 300}},
			})
			return flow.Fail(err)
		}).
		AwaitPayment(func(_ context.Context, sc *flow.StepContext) flow.Signal {
			paid = sc.Input().Payment
			return flow.Continue()
		}).
		MustBuild()
	env := newTestEnv(t, f)

	require.NoError(t, env.send(t, 1, flow.CommandInput("shop")))
	require.Len(t, env.client.invoices, 1)
	assert.Equal(t, "pay/suspended/pre_checkout", env.state(t, 1).StepInfo.Name)

	// a payment cannot arrive before the checkout is confirmed
	require.NoError(t, env.send(t, 1, flow.PaymentInput(flow.Payment{Payload: "order-1"})))
	assert.Nil(t, paid)

	require.NoError(t, env.send(t, 1, flow.PreCheckoutInput(flow.PreCheckout{ID: "q1", Currency: "EUR", TotalAmount: 300})))
	assert.Equal(t, []checkoutAnswer{{QueryID: "q1", OK: true}}, env.client.checkouts)
	assert.Equal(t, "pay/suspended/successful_payment", env.state(t, 1).StepInfo.Name)

	require.NoError(t, env.send(t, 1, flow.PaymentInput(flow.Payment{Payload: "order-1", TotalAmount: 300})))
	require.NotNil(t, paid)
	assert.Equal(t, "order-1", paid.Payload)
	assert.Equal(t, flow.FlowStateCompleted, env.state(t, 1).FlowInfo.State)
	// the invoice was cleaned up with the flow
	assert.Contains(t, env.client.deleted, int64(1))
}

func TestRejectCheckout(t *testing.T) {
	f := flow.NewBuilder("shop").
		Step("pay", noop).
		AwaitPreCheckout(func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			if err := sc.RejectCheckout(ctx, "sold out"); err != nil {
				return flow.Fail(err)
			}
			return flow.StopFlow()
		}).
		MustBuild()
	env := newTestEnv(t, f)

	require.NoError(t, env.send(t, 1, flow.CommandInput("shop")))
	require.NoError(t, env.send(t, 1, flow.PreCheckoutInput(flow.PreCheckout{ID: "q1"})))

	assert.Equal(t, []checkoutAnswer{{QueryID: "q1", OK: false, Reason: "sold out"}}, env.client.checkouts)
	assert.Equal(t, flow.FlowStateTerminated, env.state(t, 1).FlowInfo.State)
}

func TestOptionsCallbackRoundTrip(t *testing.T) {
	var picked string
	f := flow.NewBuilder("greet").
		Step("pick", func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			_, err := sc.Options(ctx, "Color?", func(b *flow.OptionsBuilder) {
				b.Add("red", "Red").Row(
					flow.Option{Value: "green", Label: "Green"},
					flow.Option{Value: "blue", Label: "Blue"},
				)
			})
			return flow.Fail(err)
		}).
		AwaitCallback(func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			picked = sc.Value()
			return flow.Fail(sc.AnswerCallback(ctx, ""))
		}).
		MustBuild()

	for name, data := range map[string]string{
		"button payload": "",
		"full name":      "greet/pick/suspended/callback|red",
		"short form":     "greet/pick|red",
	} {
		t.Run(name, func(t *testing.T) {
			picked = ""
			env := newTestEnv(t, f)
			require.NoError(t, env.send(t, 1, flow.CommandInput("greet")))

			require.Len(t, env.client.sent, 1)
			buttons := env.client.sent[0].Buttons
			require.Len(t, buttons, 2)
			assert.Equal(t, "greet/pick/suspended/callback|red", buttons[0][0].Data)
			assert.Equal(t, "Blue", buttons[1][1].Text)

			if data == "" {
				data = buttons[0][0].Data
			}
			require.NoError(t, env.send(t, 1, flow.CallbackInput("cb-1", data)))
			assert.Equal(t, "red", picked)
			assert.Equal(t, []string{"cb-1"}, env.client.callbacks)
			assert.Equal(t, flow.FlowStateCompleted, env.state(t, 1).FlowInfo.State)
		})
	}
}

func TestCallbackForAnotherStepIsIgnored(t *testing.T) {
	f := flow.NewBuilder("greet").
		Step("pick", noop).
		AwaitCallback(noop).
		MustBuild()
	env := newTestEnv(t, f)

	require.NoError(t, env.send(t, 1, flow.CommandInput("greet")))
	env.reset()
	require.NoError(t, env.send(t, 1, flow.CallbackInput("cb", "greet/other|red")))
	assert.Empty(t, env.names())
	assert.Equal(t, "greet/pick", flow.CallbackStepName("greet/pick|red"))
}
