package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"LectureBot/internal/config"
	"LectureBot/internal/http-server/handlers/blacklist"
	"LectureBot/internal/http-server/handlers/errors"
	"LectureBot/internal/http-server/handlers/health"
	"LectureBot/internal/http-server/handlers/lecture"
	"LectureBot/internal/http-server/handlers/section"
	"LectureBot/internal/http-server/handlers/stats"
	"LectureBot/internal/http-server/handlers/taxonomy"
	"LectureBot/internal/http-server/middleware/authenticate"
	"LectureBot/internal/http-server/middleware/timeout"
	"LectureBot/internal/lib/sl"
	"LectureBot/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	ws.Authenticator
	health.Core
	lecture.Core
	taxonomy.Core
	stats.Core
	blacklist.Core
	section.Core
}

// NewRouter builds the admin API. metrics and hub may be nil.
func NewRouter(log *slog.Logger, handler Handler, metrics http.Handler, hub *ws.Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.With(render.SetContentType(render.ContentTypeJSON)).Get("/health", health.Health(handler))

	if hub != nil {
		router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(hub, handler, log, w, r)
		})
	}

	router.Group(func(r chi.Router) {
		r.Use(authenticate.New(log, handler))
		if metrics != nil {
			r.Handle("/metrics", metrics)
		}

		r.Route("/api/v1", func(v1 chi.Router) {
			v1.Use(timeout.Timeout(30))
			v1.Use(render.SetContentType(render.ContentTypeJSON))

			v1.Route("/lectures", func(r chi.Router) {
				r.Get("/", lecture.List(log, handler))
				r.Get("/export", lecture.Export(log, handler))
				r.Delete("/{id}", lecture.Delete(log, handler))
			})
			v1.Route("/taxonomy/{kind}", func(r chi.Router) {
				r.Get("/", taxonomy.List(log, handler))
				r.Post("/", taxonomy.Add(log, handler))
			})
			v1.Get("/stats/{group}", stats.Get(log, handler))
			v1.Route("/blacklist", func(r chi.Router) {
				r.Get("/", blacklist.List(log, handler))
				r.Post("/", blacklist.Add(log, handler))
				r.Delete("/{user}", blacklist.Remove(log, handler))
			})
			v1.Route("/sections", func(r chi.Router) {
				r.Post("/setup", section.Setup(log, handler))
				r.Get("/pending", section.Pending(log, handler))
			})
		})
	})

	return router
}

// New serves the admin API until the listener fails.
func New(conf *config.Config, log *slog.Logger, handler Handler, metrics http.Handler, hub *ws.Hub) error {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(log, handler, metrics, hub),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
