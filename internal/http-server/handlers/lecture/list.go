package lecture

import (
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/entity"
	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func filterFromQuery(r *http.Request) entity.LectureFilter {
	q := r.URL.Query()
	return entity.LectureFilter{
		Type:        entity.LectureType(q.Get("type")),
		SectionID:   q.Get("section_id"),
		ClassID:     q.Get("class_id"),
		GroupID:     q.Get("group_id"),
		ProfessorID: q.Get("professor_id"),
		SubjectID:   q.Get("subject_id"),
		Query:       q.Get("q"),
	}
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
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

		lectures, err := handler.ListLectures(r.Context(), filterFromQuery(r))
		if err != nil {
			logger.Error("failed to list lectures", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to list lectures: %v", err)))
			return
		}

		logger.Debug("lectures listed", slog.Int("count", len(lectures)))
		render.JSON(w, r, response.Ok(lectures))
	}
}
