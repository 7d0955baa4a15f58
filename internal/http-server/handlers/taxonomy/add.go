package taxonomy

import (
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/entity"
	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/lib/validate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type AddRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	ParentID string `json:"parent_id" validate:"omitempty,max=64"`
}

func (a *AddRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}

func Add(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req AddRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		e, err := handler.AddEntity(r.Context(), kind, req.Name, req.ParentID)
		if err != nil {
			logger.Error("failed to add entity", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to add %s: %v", kind, err)))
			return
		}

		logger.Info("entity added", slog.String("kind", string(kind)), slog.String("id", e.ID))
		render.JSON(w, r, response.Ok(e))
	}
}
