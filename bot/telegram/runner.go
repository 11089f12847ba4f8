package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/precheckoutquery"
	"github.com/google/uuid"

	"TgFlow/bot/flow"
	"TgFlow/internal/lib/sl"
)

const defaultRunnerPrefix = "telegram-flow-runner-"

// Runner feeds Telegram updates to the flow engine. Updates of one chat are
// handled one at a time.
type Runner struct {
	name   string
	api    TelegramAPI
	client flow.Client
	engine *flow.Engine
	store  flow.ChatStateStore
	locks  *chatLocks
	log    *slog.Logger
}

type RunnerOption func(*Runner)

// WithName sets the runner name stored in chat metadata and used to key chat states.
func WithName(name string) RunnerOption {
	return func(r *Runner) {
		if name != "" {
			r.name = name
		}
	}
}

// WithClient replaces the client built from the API.
func WithClient(c flow.Client) RunnerOption {
	return func(r *Runner) {
		r.client = c
	}
}

func NewRunner(api TelegramAPI, engine *flow.Engine, store flow.ChatStateStore, log *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		name:   defaultRunnerPrefix + uuid.NewString(),
		api:    api,
		engine: engine,
		store:  store,
		locks:  newChatLocks(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = NewClient(api, "")
	}
	r.log = log.With(sl.Module("telegram.runner"), slog.String("runner", r.name))
	return r
}

func (r *Runner) Name() string {
	return r.name
}

// SetCommands publishes the menus of the registered flows as the bot command list.
func (r *Runner) SetCommands() error {
	menus := r.engine.Menus()
	if len(menus) == 0 {
		return nil
	}
	commands := make([]tgbotapi.BotCommand, 0, len(menus))
	for _, m := range menus {
		commands = append(commands, tgbotapi.BotCommand{Command: m.Command, Description: m.Description})
	}
	if _, err := r.api.SetMyCommands(commands, nil); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Start registers the update handlers and polls until the updater stops.
func (r *Runner) Start(bot *tgbotapi.Bot, dropPending bool) error {
	if err := r.SetCommands(); err != nil {
		r.log.Warn("publishing commands", sl.Err(err))
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			r.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewPreCheckoutQuery(precheckoutquery.All, r.handle))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, r.handle))
	dispatcher.AddHandler(handlers.NewMessage(message.SuccessfulPayment, r.handle))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, r.handle))

	err := updater.StartPolling(bot, &ext.PollingOpts{
		DropPendingUpdates: dropPending,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	r.log.Info("runner started", slog.String("username", bot.Username))
	updater.Idle()
	return nil
}

func (r *Runner) handle(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return r.HandleUpdate(context.Background(), ctx.Update)
}

// HandleUpdate processes one update. Engine failures are reported as ExecutionFailed
// events and logged; only an unusable update yields an error.
func (r *Runner) HandleUpdate(ctx context.Context, u *tgbotapi.Update) error {
	if u == nil {
		return fmt.Errorf("nil update")
	}
	inc, ok := Classify(u)
	if !ok {
		r.log.Debug("update skipped", slog.Int64("update_id", u.UpdateId))
		return nil
	}
	r.process(ctx, inc)
	return nil
}

// Emit delivers a custom event to a chat. It resumes the chat only when its
// current step awaits events of the same type.
func (r *Runner) Emit(ctx context.Context, chatID int64, event any) {
	r.process(ctx, Incoming{ChatID: chatID, Input: flow.EventInput(event)})
}

func (r *Runner) process(ctx context.Context, inc Incoming) {
	unlock := r.locks.lock(inc.ChatID)
	defer unlock()

	log := r.log.With(sl.Chat(inc.ChatID), slog.String("input", inc.Input.Kind.String()))

	var cc *flow.ChatContext
	defer func() {
		if v := recover(); v != nil {
			log.Error("execution panicked", slog.Any("panic", v))
			r.fail(ctx, log, cc, &flow.PanicError{Value: v})
		}
	}()

	ec := flow.ExtractionContext{Runner: r.name, Language: inc.Language}
	state, err := r.store.Extract(ctx, inc.ChatID, ec)
	if err != nil {
		r.fail(ctx, log, nil, fmt.Errorf("extracting chat state: %w", err))
		return
	}
	if state == nil {
		state = flow.DefaultChatState(inc.ChatID, ec)
	}
	state.SetMetadata(flow.RunnerNameKey, r.name)

	cc = flow.NewChatContext(inc.Input, state, r.client)
	if err = r.engine.Execute(ctx, cc); err != nil {
		r.fail(ctx, log, cc, err)
	}
}

// fail is the failure boundary of the runner: nothing escapes to the dispatcher.
func (r *Runner) fail(ctx context.Context, log *slog.Logger, cc *flow.ChatContext, err error) {
	log.Debug("execution failed", sl.Err(err))
	defer func() {
		if v := recover(); v != nil {
			log.Error("publishing execution failure panicked", slog.Any("panic", v))
		}
	}()
	if perr := r.engine.Bus().Publish(ctx, flow.NewExecutionFailed(cc, err)); perr != nil {
		log.Error("publishing execution failure", sl.Err(perr))
	}
}
