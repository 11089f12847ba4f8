package flow_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"TgFlow/bot/flow"
)

const testRunner = "test-runner"

type checkoutAnswer struct {
	QueryID string
	OK      bool
	Reason  string
}

type fakeClient struct {
	mu        sync.Mutex
	nextID    int64
	sent      []flow.OutgoingMessage
	deleted   []int64
	invoices  []flow.Invoice
	checkouts []checkoutAnswer
	callbacks []string
}

func (c *fakeClient) SendMessage(_ context.Context, _ int64, msg flow.OutgoingMessage) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.sent = append(c.sent, msg)
	return c.nextID, nil
}

func (c *fakeClient) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, messageID)
	return nil
}

func (c *fakeClient) SendInvoice(_ context.Context, _ int64, invoice flow.Invoice) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.invoices = append(c.invoices, invoice)
	return c.nextID, nil
}

func (c *fakeClient) AnswerPreCheckout(_ context.Context, queryID string, ok bool, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkouts = append(c.checkouts, checkoutAnswer{QueryID: queryID, OK: ok, Reason: reason})
	return nil
}

func (c *fakeClient) AnswerCallback(_ context.Context, queryID, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, queryID)
	return nil
}

type testEnv struct {
	engine *flow.Engine
	bus    *flow.Bus
	store  *flow.MemoryStore
	client *fakeClient

	mu     sync.Mutex
	events []flow.Event
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, flows ...*flow.Flow) *testEnv {
	t.Helper()
	env := &testEnv{
		bus:    flow.NewBus(),
		store:  flow.NewMemoryStore(),
		client: &fakeClient{},
	}
	env.engine = flow.NewEngine(env.bus, env.store, discardLogger())
	env.bus.Register(flow.OnWithPriority(flow.PriorityLow, func(_ context.Context, e flow.Event) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, e)
		return nil
	}))
	for _, f := range flows {
		require.NoError(t, env.engine.RegisterFlow(f))
	}
	return env
}

func (env *testEnv) state(t *testing.T, chatID int64) *flow.ChatState {
	t.Helper()
	state, err := env.store.Extract(context.Background(), chatID, flow.ExtractionContext{Runner: testRunner})
	require.NoError(t, err)
	return state
}

func (env *testEnv) send(t *testing.T, chatID int64, in flow.Input) error {
	t.Helper()
	cc := flow.NewChatContext(in, env.state(t, chatID), env.client)
	return env.engine.Execute(context.Background(), cc)
}

func (env *testEnv) reset() {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.events = nil
}

func (env *testEnv) names() []string {
	env.mu.Lock()
	defer env.mu.Unlock()
	out := make([]string, 0, len(env.events))
	for _, e := range env.events {
		out = append(out, e.Name())
	}
	return out
}

func (env *testEnv) transitions() []flow.Transition {
	env.mu.Lock()
	defer env.mu.Unlock()
	var out []flow.Transition
	for _, e := range env.events {
		if tr, ok := flow.TransitionOf(e); ok {
			out = append(out, tr)
		}
	}
	return out
}

func (env *testEnv) lastCompleted(t *testing.T) *flow.ExecutionCompleted {
	t.Helper()
	env.mu.Lock()
	defer env.mu.Unlock()
	for i := len(env.events) - 1; i >= 0; i-- {
		if ev, ok := env.events[i].(*flow.ExecutionCompleted); ok {
			return ev
		}
	}
	require.Fail(t, "no execution completed event")
	return nil
}

// visits returns the step names visited by the last execution.
func (env *testEnv) visits(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, snap := range env.lastCompleted(t).History {
		out = append(out, snap.Step.Name())
	}
	return out
}

// recorder builds actions appending the step name to a shared trace.
type recorder struct {
	mu    sync.Mutex
	trace []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, name)
}

func (r *recorder) Continue(name string) flow.Action {
	return r.Then(name, flow.Continue())
}

func (r *recorder) Then(name string, s flow.Signal) flow.Action {
	return func(context.Context, *flow.StepContext) flow.Signal {
		r.add(name)
		return s
	}
}

func (r *recorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.trace...)
}
