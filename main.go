package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"TgFlow/ai/gpt"
	"TgFlow/bot/flow"
	"TgFlow/bot/telegram"
	"TgFlow/bot/workflows/ask"
	"TgFlow/bot/workflows/greet"
	"TgFlow/bot/workflows/shop"
	"TgFlow/impl/core"
	"TgFlow/internal/config"
	"TgFlow/internal/http-server/api"
	"TgFlow/internal/i18n"
	"TgFlow/internal/lib/logger"
	"TgFlow/internal/lib/sl"
	"TgFlow/internal/statestore"
	"TgFlow/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "", "path to log file directory, overrides log_path")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if *logPath == "" {
		*logPath = conf.LogPath
	}
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bot *tgbotapi.Bot
	if conf.Telegram.Enabled {
		var err error
		bot, err = tgbotapi.NewBot(conf.Telegram.ApiKey, nil)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
			os.Exit(1)
		}
		// the notifier keeps the plain logger so that its own failures are not forwarded
		lg = logger.SetupTelegramHandler(lg, telegram.NewAdminNotifier(bot, conf.Telegram.AdminId, lg), slog.LevelError)
		lg.With(
			slog.String("bot_name", conf.Telegram.BotName),
		).Info("telegram bot initialized")
	}

	lg.Info("starting tgflow", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	store, closeStore, err := statestore.Open(ctx, conf, lg)
	if err != nil {
		lg.Error("state store", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			lg.Error("closing state store", sl.Err(err))
		}
	}()

	catalog := i18n.NewCatalog(os.DirFS(conf.I18n.Path), conf.I18n.DefaultLanguage)

	bus := flow.NewBus()
	engine := flow.NewEngine(bus, store, lg, flow.WithLocalizer(catalog))

	metrics := flow.NewMetrics()
	bus.Register(flow.NewObserverListener(
		flow.NewCompositeObserver(metrics, flow.NewLoggingObserver(lg)),
		flow.PriorityLow,
	))

	hub := ws.NewHub(lg)
	go hub.Run(ctx)
	bus.Register(ws.NewListener(hub))

	registerFlows(conf, lg, engine)

	handler := core.New(lg)
	handler.SetAuthKey(conf.Listen.ApiKey)
	handler.SetEngine(engine)
	handler.SetStore(store)
	handler.SetMetrics(metrics)
	handler.SetRunnerName(conf.Telegram.RunnerName)
	core.RegisterEvent[shop.Delivered](handler.Events(), shop.DeliveredEvent)

	if bot != nil {
		opts := []telegram.RunnerOption{telegram.WithClient(telegram.NewClient(bot, conf.Payments.ProviderToken))}
		if conf.Telegram.RunnerName != "" {
			opts = append(opts, telegram.WithName(conf.Telegram.RunnerName))
		}
		runner := telegram.NewRunner(bot, engine, store, lg, opts...)
		handler.SetEmitter(runner)
		handler.SetRunnerName(runner.Name())

		go func() {
			if err := runner.Start(bot, conf.Telegram.DropPending); err != nil {
				lg.Error("telegram runner", sl.Err(err))
			}
		}()
	}

	if !conf.Listen.Enabled {
		<-ctx.Done()
		lg.Info("service stopped")
		return
	}

	// *** blocking start with http server ***
	err = api.New(ctx, conf, lg, handler, ws.ServeWs(hub, conf.Listen.ApiKey, lg))
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Info("service stopped")
}

func registerFlows(conf *config.Config, lg *slog.Logger, engine *flow.Engine) {
	var flows []*flow.Flow

	if f, err := greet.New(); err != nil {
		lg.Error("building greet flow", sl.Err(err))
	} else {
		flows = append(flows, f)
	}

	if f, err := shop.New(conf.Payments.Currency, shop.DefaultCatalog()); err != nil {
		lg.Error("building shop flow", sl.Err(err))
	} else if conf.Payments.ProviderToken == "" {
		lg.Warn("payments provider token not set, shop flow disabled")
	} else {
		flows = append(flows, f)
	}

	if conf.OpenAI.ApiKey == "" {
		lg.Warn("openai api key not set, ask flow disabled")
	} else {
		assistant := gpt.NewOpenAI(conf.OpenAI.ApiKey, lg, gpt.WithModel(conf.OpenAI.Model))
		if f, err := ask.New(assistant); err != nil {
			lg.Error("building ask flow", sl.Err(err))
		} else {
			flows = append(flows, f)
			lg.With(
				sl.Secret("openai_key", conf.OpenAI.ApiKey),
				slog.String("model", conf.OpenAI.Model),
			).Info("assistant initialized")
		}
	}

	for _, f := range flows {
		if err := engine.RegisterFlow(f); err != nil {
			lg.Error("registering flow", sl.Err(err), sl.Flow(f.ID()))
		}
	}
}
