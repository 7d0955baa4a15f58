package lecture

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.lecture"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("lecture service not available")
			render.JSON(w, r, response.Error("lecture service not available"))
			return
		}

		id := chi.URLParam(r, "id")
		err := handler.DeleteLecture(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("lecture not found"))
			return
		}
		if err != nil {
			logger.Error("failed to delete lecture", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to delete lecture: %v", err)))
			return
		}

		logger.Info("lecture deleted", slog.String("id", id))
		render.JSON(w, r, response.Ok("Lecture deleted"))
	}
}
