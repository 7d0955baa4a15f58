package blacklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"LectureBot/internal/lib/api/response"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/lib/validate"
	"LectureBot/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ListBlacklist(ctx context.Context) ([]string, error)
	AddToBlacklist(ctx context.Context, userID string) error
	RemoveFromBlacklist(ctx context.Context, userID string) error
}

type AddRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (a *AddRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			render.JSON(w, r, response.Error("blacklist not available"))
			return
		}
		list, err := handler.ListBlacklist(r.Context())
		if err != nil {
			log.With(sl.Module("http.handlers.blacklist"), sl.Err(err)).Error("failed to list blacklist")
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to list blacklist: %v", err)))
			return
		}
		render.JSON(w, r, response.Ok(list))
	}
}

func Add(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.blacklist"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		if handler == nil {
			render.JSON(w, r, response.Error("blacklist not available"))
			return
		}

		var req AddRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		if err := handler.AddToBlacklist(r.Context(), req.UserID); err != nil {
			logger.Error("failed to add to blacklist", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to add to blacklist: %v", err)))
			return
		}
		logger.Info("user blacklisted", slog.String("user", req.UserID))
		render.JSON(w, r, response.Ok("User blacklisted"))
	}
}

func Remove(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			render.JSON(w, r, response.Error("blacklist not available"))
			return
		}
		user := chi.URLParam(r, "user")
		err := handler.RemoveFromBlacklist(r.Context(), user)
		if errors.Is(err, storage.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user is not blacklisted"))
			return
		}
		if err != nil {
			log.With(sl.Module("http.handlers.blacklist"), sl.Err(err)).Error("failed to remove from blacklist")
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to remove from blacklist: %v", err)))
			return
		}
		render.JSON(w, r, response.Ok("User removed from blacklist"))
	}
}
