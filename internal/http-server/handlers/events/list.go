package events

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"TgFlow/internal/lib/api/response"
)

// List returns the event types accepted by the chat events endpoint.
func List(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(handler.EventTypes()))
	}
}
