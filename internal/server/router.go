package server

import (
	"net/http"

	"github.com/cloo-solutions/medassist/internal/api"
	"github.com/cloo-solutions/medassist/internal/api/handlers"
	"github.com/cloo-solutions/medassist/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	SessionHandler   *handlers.SessionHandler
	DigestHandler    *handlers.DigestHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", cfg.SessionHandler.Create)
		r.Get("/{id}/turns", cfg.SessionHandler.ListTurns)
		r.Post("/{id}/turns", cfg.SessionHandler.Submit)
	})

	r.Post("/digest", cfg.DigestHandler.Create)

	r.Route("/knowledge", func(r chi.Router) {
		r.Get("/status", cfg.KnowledgeHandler.Status)
		r.Post("/ingest", cfg.KnowledgeHandler.Ingest)
	})

	return r
}
