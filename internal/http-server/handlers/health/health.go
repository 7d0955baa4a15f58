package health

import (
	"net/http"

	"LectureBot/internal/lib/api/response"

	"github.com/go-chi/render"
)

type Core interface {
	Connected() bool
}

// Health reports liveness and whether the chat transport is connected.
func Health(handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := handler != nil && handler.Connected()
		render.JSON(w, r, response.Ok(map[string]any{
			"status":    "ok",
			"connected": connected,
		}))
	}
}
