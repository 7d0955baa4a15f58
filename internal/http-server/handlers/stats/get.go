package stats

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/entity"
	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	GroupStats(ctx context.Context, groupID string) (*entity.GroupStats, error)
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			render.JSON(w, r, response.Error("stats service not available"))
			return
		}

		group := chi.URLParam(r, "group")
		stats, err := handler.GroupStats(r.Context(), group)
		if err != nil {
			logger.Error("failed to get stats", sl.Err(err), slog.String("group", group))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to get stats: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
