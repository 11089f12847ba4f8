package flows

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"TgFlow/internal/lib/api/response"
	"TgFlow/internal/lib/sl"
)

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.flows"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		flows := handler.FlowsInfo()
		logger.Debug("flows listed", slog.Int("count", len(flows)))
		render.JSON(w, r, response.Ok(flows))
	}
}
