package lecture

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Export streams the lectures table as a PDF.
func Export(log *slog.Logger, handler Core) http.HandlerFunc {
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

		data, err := handler.ExportLectures(r.Context(), filterFromQuery(r))
		if err != nil {
			logger.Error("failed to export lectures", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to export lectures: %v", err)))
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="lectures.pdf"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err = w.Write(data); err != nil {
			logger.Error("failed to write pdf", sl.Err(err))
		}
	}
}
