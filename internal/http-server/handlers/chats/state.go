package chats

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"TgFlow/internal/lib/api/response"
	"TgFlow/internal/lib/sl"
)

func GetState(log *slog.Logger, handler Core) http.HandlerFunc {
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
		logger = logger.With(sl.Chat(chatID))

		state, err := handler.ChatState(r.Context(), chatID)
		if err != nil {
			logger.Error("get chat state", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to get chat state: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(state))
	}
}

func chatIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "chat_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chat id %q", raw)
	}
	return id, nil
}
