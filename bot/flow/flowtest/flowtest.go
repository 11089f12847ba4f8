// Package flowtest runs flows against an in-memory store and a recording client.
package flowtest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"TgFlow/bot/flow"
)

const Runner = "flowtest"

type CheckoutAnswer struct {
	QueryID string
	OK      bool
	Reason  string
}

// Client records outbound calls and hands out sequential message ids.
type Client struct {
	mu        sync.Mutex
	nextID    int64
	Sent      []flow.OutgoingMessage
	Deleted   []int64
	Invoices  []flow.Invoice
	Checkouts []CheckoutAnswer
	Callbacks []string
}

func (c *Client) SendMessage(_ context.Context, _ int64, msg flow.OutgoingMessage) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.Sent = append(c.Sent, msg)
	return c.nextID, nil
}

func (c *Client) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deleted = append(c.Deleted, messageID)
	return nil
}

func (c *Client) SendInvoice(_ context.Context, _ int64, invoice flow.Invoice) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.Invoices = append(c.Invoices, invoice)
	return c.nextID, nil
}

func (c *Client) AnswerPreCheckout(_ context.Context, queryID string, ok bool, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Checkouts = append(c.Checkouts, CheckoutAnswer{QueryID: queryID, OK: ok, Reason: reason})
	return nil
}

func (c *Client) AnswerCallback(_ context.Context, queryID, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Callbacks = append(c.Callbacks, queryID)
	return nil
}

// Texts returns the text of every message sent so far.
func (c *Client) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Sent))
	for _, m := range c.Sent {
		out = append(out, m.Text)
	}
	return out
}

// Harness wires an engine with the default listeners.
type Harness struct {
	Engine *flow.Engine
	Bus    *flow.Bus
	Store  *flow.MemoryStore
	Client *Client

	mu     sync.Mutex
	events []flow.Event
	slept  []time.Duration
}

func New(t testing.TB, flows ...*flow.Flow) *Harness {
	t.Helper()
	h := &Harness{
		Bus:    flow.NewBus(),
		Store:  flow.NewMemoryStore(),
		Client: &Client{},
	}
	h.Engine = flow.NewEngine(h.Bus, h.Store, slog.New(slog.NewTextHandler(io.Discard, nil)), flow.WithSleep(h.sleep))
	h.Bus.Register(flow.OnWithPriority(flow.PriorityLow, func(_ context.Context, e flow.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
		return nil
	}))
	for _, f := range flows {
		if err := h.Engine.RegisterFlow(f); err != nil {
			t.Fatalf("register flow %s: %v", f.ID(), err)
		}
	}
	return h
}

func (h *Harness) State(t testing.TB, chatID int64) *flow.ChatState {
	t.Helper()
	state, err := h.Store.Extract(context.Background(), chatID, flow.ExtractionContext{Runner: Runner})
	if err != nil {
		t.Fatalf("extract state: %v", err)
	}
	return state
}

func (h *Harness) Send(t testing.TB, chatID int64, in flow.Input) error {
	t.Helper()
	cc := flow.NewChatContext(in, h.State(t, chatID), h.Client)
	return h.Engine.Execute(context.Background(), cc)
}

// Step returns the name of the chat's current step, empty when no step is recorded.
func (h *Harness) Step(t testing.TB, chatID int64) string {
	t.Helper()
	if info := h.State(t, chatID).StepInfo; info != nil {
		return info.Name
	}
	return ""
}

func (h *Harness) FlowState(t testing.TB, chatID int64) flow.FlowState {
	t.Helper()
	if info := h.State(t, chatID).FlowInfo; info != nil {
		return info.State
	}
	return ""
}

// sleep records the wait instead of blocking the test.
func (h *Harness) sleep(ctx context.Context, d time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slept = append(h.slept, d)
	return ctx.Err()
}

// Slept returns the waits requested by short messages.
func (h *Harness) Slept() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.slept...)
}

func (h *Harness) Events() []flow.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]flow.Event(nil), h.events...)
}
