package telegram_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TgFlow/bot/flow"
	"TgFlow/bot/telegram"
)

type reminder struct{ Text string }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type runnerEnv struct {
	api    *fakeAPI
	store  *flow.MemoryStore
	bus    *flow.Bus
	runner *telegram.Runner

	mu       sync.Mutex
	failures []*flow.ExecutionFailed
}

func newRunnerEnv(t *testing.T, flows ...*flow.Flow) *runnerEnv {
	t.Helper()
	env := &runnerEnv{api: &fakeAPI{}, store: flow.NewMemoryStore(), bus: flow.NewBus()}
	engine := flow.NewEngine(env.bus, env.store, discard())
	for _, f := range flows {
		require.NoError(t, engine.RegisterFlow(f))
	}
	env.bus.Register(flow.On(func(_ context.Context, e *flow.ExecutionFailed) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.failures = append(env.failures, e)
		return nil
	}))
	env.runner = telegram.NewRunner(env.api, engine, env.store, discard(), telegram.WithName("test"))
	return env
}

func (env *runnerEnv) state(t *testing.T, chatID int64) *flow.ChatState {
	t.Helper()
	state, err := env.store.Extract(context.Background(), chatID, flow.ExtractionContext{Runner: "test"})
	require.NoError(t, err)
	return state
}

func greetFlow() *flow.Flow {
	return flow.NewBuilder("greet").
		WithMenu("Say hello", 1).
		Step("ask", func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			_, err := sc.Message(ctx, "name?")
			return flow.Fail(err)
		}).
		AwaitText(func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			_, err := sc.Message(ctx, "hi "+sc.Text())
			return flow.Fail(err)
		}).
		MustBuild()
}

func TestRunnerDrivesFlow(t *testing.T) {
	env := newRunnerEnv(t, greetFlow())
	ctx := context.Background()

	require.NoError(t, env.runner.HandleUpdate(ctx, textUpdate(1, 100, "/greet")))
	state := env.state(t, 1)
	assert.Equal(t, "ask/suspended/text", state.StepInfo.Name)
	assert.Equal(t, "test", state.Metadata[flow.RunnerNameKey])

	require.NoError(t, env.runner.HandleUpdate(ctx, textUpdate(1, 101, "Ann")))
	assert.Equal(t, []string{"name?", "hi Ann"}, env.api.texts)
	assert.Equal(t, flow.FlowStateCompleted, env.state(t, 1).FlowInfo.State)
	assert.ElementsMatch(t, []int64{1, 2, 100, 101}, env.api.deleted)
}

func TestRunnerSetsCommands(t *testing.T) {
	env := newRunnerEnv(t, greetFlow(), flow.NewBuilder("hidden").Step("a", nil).MustBuild())
	require.NoError(t, env.runner.SetCommands())
	assert.Equal(t, []tgbotapi.BotCommand{{Command: "greet", Description: "Say hello"}}, env.api.commands)
}

func TestRunnerFailureBoundary(t *testing.T) {
	broken := flow.NewBuilder("broken").
		Step("a", func(context.Context, *flow.StepContext) flow.Signal { return flow.Goto("nowhere") }).
		MustBuild()
	env := newRunnerEnv(t, broken)

	require.NoError(t, env.runner.HandleUpdate(context.Background(), textUpdate(1, 1, "/broken")))
	require.Len(t, env.failures, 1)
	assert.ErrorIs(t, env.failures[0].Err, flow.ErrStepNotFound)
	assert.Equal(t, int64(1), env.failures[0].ChatState().ChatID)
}

func TestRunnerEmit(t *testing.T) {
	var got []string
	b := flow.NewBuilder("wait").Step("start", nil)
	flow.AwaitEvent(b, func(_ context.Context, _ *flow.StepContext, e reminder) flow.Signal {
		got = append(got, e.Text)
		return flow.Continue()
	})
	env := newRunnerEnv(t, b.MustBuild())
	ctx := context.Background()

	env.runner.Emit(ctx, 3, reminder{Text: "too early"})
	require.NoError(t, env.runner.HandleUpdate(ctx, textUpdate(3, 1, "/wait")))
	env.runner.Emit(ctx, 3, "wrong type")
	env.runner.Emit(ctx, 3, reminder{Text: "ping"})

	assert.Equal(t, []string{"ping"}, got)
	assert.Equal(t, flow.FlowStateCompleted, env.state(t, 3).FlowInfo.State)
}

func TestRunnerCallbackAndOptions(t *testing.T) {
	var picked string
	f := flow.NewBuilder("color").
		Step("pick", func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			_, err := sc.Options(ctx, "pick", func(b *flow.OptionsBuilder) {
				b.Add("red", "Red")
			})
			return flow.Fail(err)
		}).
		AwaitCallback(func(ctx context.Context, sc *flow.StepContext) flow.Signal {
			picked = sc.Value()
			return flow.Fail(sc.AnswerCallback(ctx, ""))
		}).
		MustBuild()
	env := newRunnerEnv(t, f)
	ctx := context.Background()

	require.NoError(t, env.runner.HandleUpdate(ctx, textUpdate(4, 1, "/color")))
	require.Len(t, env.api.markups, 1)
	markup, ok := env.api.markups[0].(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	data := markup.InlineKeyboard[0][0].CallbackData
	assert.Equal(t, "color/pick/suspended/callback|red", data)

	require.NoError(t, env.runner.HandleUpdate(ctx, callbackUpdate(4, "cb-9", data)))
	assert.Equal(t, "red", picked)
	assert.Equal(t, []string{"cb-9"}, env.api.callbacks)
}

func TestRunnerSerializesChat(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)
	f := flow.NewBuilder("count").
		Step("a", func(context.Context, *flow.StepContext) flow.Signal {
			mu.Lock()
			running++
			maxSeen = max(maxSeen, running)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return flow.Continue()
		}).
		MustBuild()
	env := newRunnerEnv(t, f)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.runner.HandleUpdate(context.Background(), textUpdate(9, int64(i+1), "/count"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestRunnerRecoversListenerPanic(t *testing.T) {
	env := newRunnerEnv(t, greetFlow())
	env.bus.Register(flow.On(func(context.Context, *flow.StepStarted) error {
		var labels map[string]string
		labels["boom"] = "x"
		return nil
	}))

	require.NotPanics(t, func() {
		require.NoError(t, env.runner.HandleUpdate(context.Background(), textUpdate(1, 1, "/greet")))
	})
	require.Len(t, env.failures, 1)
	var pe *flow.PanicError
	require.ErrorAs(t, env.failures[0].Err, &pe)
	assert.Equal(t, int64(1), env.failures[0].ChatState().ChatID)
}

// emptyStore reports no stored state for any chat.
type emptyStore struct {
	*flow.MemoryStore
}

func (emptyStore) Extract(context.Context, int64, flow.ExtractionContext) (*flow.ChatState, error) {
	return nil, nil
}

func TestRunnerDefaultsMissingState(t *testing.T) {
	store := flow.NewMemoryStore()
	bus := flow.NewBus()
	engine := flow.NewEngine(bus, store, discard())
	require.NoError(t, engine.RegisterFlow(greetFlow()))
	var failures int
	bus.Register(flow.On(func(context.Context, *flow.ExecutionFailed) error {
		failures++
		return nil
	}))
	runner := telegram.NewRunner(&fakeAPI{}, engine, emptyStore{store}, discard(), telegram.WithName("test"))

	require.NotPanics(t, func() {
		require.NoError(t, runner.HandleUpdate(context.Background(), textUpdate(2, 1, "/greet")))
	})
	assert.Zero(t, failures)
	state, err := store.Extract(context.Background(), 2, flow.ExtractionContext{Runner: "test"})
	require.NoError(t, err)
	require.NotNil(t, state.StepInfo)
	assert.Equal(t, "ask/suspended/text", state.StepInfo.Name)
	assert.Equal(t, "test", state.Metadata[flow.RunnerNameKey])
}
