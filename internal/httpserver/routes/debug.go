package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/httpserver/deps"
	"github.com/linkman-app/linkman/internal/httpserver/handlers"
)

func init() { Register(registerDebug) }

// Debug routes are registered unconditionally; the engine rejects them
// outside development mode.
func registerDebug(r chi.Router, d deps.Deps) {
	r.Route("/api/debug", func(r chi.Router) {
		r.Get("/storage", handlers.DebugStorage(d))
		r.Post("/migrate", handlers.ForceMigration(d))
		r.Post("/nuke", handlers.NukeStorage(d))
	})
}
