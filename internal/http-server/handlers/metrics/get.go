package metrics

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"TgFlow/internal/lib/api/response"
	"TgFlow/internal/lib/sl"
)

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := handler.Metrics()
		if err != nil {
			log.With(
				sl.Module("http.handlers.metrics"),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			).Error("metrics", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Metrics not available"))
			return
		}
		render.JSON(w, r, response.Ok(snap))
	}
}
