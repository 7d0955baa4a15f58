package section

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/entity"
	"LectureBot/internal/lib/api/cont"
	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/lib/validate"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	SetupSection(ctx context.Context, tree entity.SectionSetup) (*entity.SetupResult, error)
	PendingSections(ctx context.Context) ([]entity.Entity, error)
}

type SetupRequest struct {
	entity.SectionSetup
}

func (s *SetupRequest) Bind(_ *http.Request) error {
	return validate.Struct(s.SectionSetup)
}

// Setup stores a section tree and provisions its folders. A provisioning
// failure still answers 200 with the failed status in the result.
func Setup(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.section"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("section service not available")
			render.JSON(w, r, response.Error("section service not available"))
			return
		}

		var req SetupRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		if user := cont.GetUser(r.Context()); user != nil {
			logger = logger.With(slog.String("user", user.Username))
		}

		result, err := handler.SetupSection(r.Context(), req.SectionSetup)
		if err != nil {
			logger.Error("failed to set up section", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to set up section: %v", err)))
			return
		}
		logger.With(
			slog.String("section", result.Section.ID),
			slog.String("status", string(result.Section.FolderStatus)),
		).Info("section set up")

		render.JSON(w, r, response.Ok(result))
	}
}

func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			render.JSON(w, r, response.Error("section service not available"))
			return
		}
		sections, err := handler.PendingSections(r.Context())
		if err != nil {
			log.With(sl.Module("http.handlers.section"), sl.Err(err)).Error("failed to list pending sections")
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to list pending sections: %v", err)))
			return
		}
		render.JSON(w, r, response.Ok(sections))
	}
}
