package chats

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"TgFlow/entity"
	"TgFlow/internal/lib/api/response"
	"TgFlow/internal/lib/sl"
)

// EmitEvent delivers a registered custom event into the chat. The request returns
// after the chat processed the event.
func EmitEvent(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.chats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		chatID, err := chatIDParam(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		var req entity.EventRequest
		if err = render.Bind(r, &req); err != nil {
			logger.Debug("invalid event request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Chat(chatID), slog.String("event", req.Type))

		if err = handler.EmitEvent(r.Context(), chatID, req.Type, req.Payload); err != nil {
			logger.Warn("emit event", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		logger.Info("event emitted")
		render.JSON(w, r, response.Ok(req.Type))
	}
}
