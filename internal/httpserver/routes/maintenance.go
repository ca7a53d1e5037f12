package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/httpserver/deps"
	"github.com/linkman-app/linkman/internal/httpserver/handlers"
)

func init() { Register(registerMaintenance) }

func registerMaintenance(r chi.Router, d deps.Deps) {
	r.Route("/api/maintenance", func(r chi.Router) {
		r.Get("/integrity", handlers.DataIntegrity(d))
		r.Post("/recover", handlers.AutoRecover(d))
		r.Post("/backup", handlers.CreateBackup(d))
		r.Post("/restore", handlers.RestoreBackup(d))
		r.Post("/reset", handlers.ResetData(d))
	})
}
