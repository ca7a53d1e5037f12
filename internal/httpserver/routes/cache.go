package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/httpserver/deps"
	"github.com/linkman-app/linkman/internal/httpserver/handlers"
)

func init() { Register(registerCache) }

func registerCache(r chi.Router, d deps.Deps) {
	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", handlers.CacheStats(d))
		r.Post("/refresh", handlers.RefreshCache(d))
	})
}
