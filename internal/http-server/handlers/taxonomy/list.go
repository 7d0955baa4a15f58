package taxonomy

import (
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

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.taxonomy"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("taxonomy service not available")
			render.JSON(w, r, response.Error("taxonomy service not available"))
			return
		}

		kind := entity.TaxonomyKind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("unknown kind %q", kind)))
			return
		}

		entities, err := handler.ListEntities(r.Context(), kind)
		if err != nil {
			logger.Error("failed to list entities", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to list %s: %v", kind.Collection(), err)))
			return
		}

		render.JSON(w, r, response.Ok(entities))
	}
}
