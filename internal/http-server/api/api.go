package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"TgFlow/internal/config"
	"TgFlow/internal/http-server/handlers/chats"
	handlerErrors "TgFlow/internal/http-server/handlers/errors"
	"TgFlow/internal/http-server/handlers/events"
	"TgFlow/internal/http-server/handlers/flows"
	"TgFlow/internal/http-server/handlers/metrics"
	"TgFlow/internal/http-server/middleware/authenticate"
	"TgFlow/internal/lib/sl"
)

const requestTimeout = 5 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	flows.Core
	chats.Core
	events.Core
	metrics.Core
}

// NewRouter mounts the admin API under /api/v1. The event feed, when given, is
// served at /ws outside of the request timeout and checks its own token.
func NewRouter(log *slog.Logger, handler Handler, feed http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(handlerErrors.NotFound(log))
	router.MethodNotAllowed(handlerErrors.NotAllowed(log))

	if feed != nil {
		router.Handle("/ws", feed)
	}

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(requestTimeout))
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Use(authenticate.New(log, handler))

		v1.Get("/flows", flows.List(log, handler))
		v1.Get("/events", events.List(log, handler))
		v1.Get("/metrics", metrics.Get(log, handler))
		v1.Route("/chats/{chat_id}", func(r chi.Router) {
			r.Get("/state", chats.GetState(log, handler))
			r.Post("/events", chats.EmitEvent(log, handler))
		})
	})

	return router
}

// New serves the admin API until ctx is done.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, handler Handler, feed http.Handler) error {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           NewRouter(log, handler, feed),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: requestTimeout,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
			server.log.Error("shutdown", sl.Err(err))
		}
	}()

	server.log.Info("starting api server", slog.String("address", serverAddress))
	if err = server.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
