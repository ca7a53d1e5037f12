package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/httpserver/deps"
	"github.com/linkman-app/linkman/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Route("/api/links", func(r chi.Router) {
		r.Get("/", handlers.ListLinks(d))
		r.Post("/", handlers.CreateLink(d))
		r.Get("/search", handlers.SearchLinks(d))
		r.Get("/{id}", handlers.GetLink(d))
		r.Patch("/{id}", handlers.UpdateLink(d))
		r.Delete("/{id}", handlers.DeleteLink(d))
		r.Post("/{id}/access", handlers.RecordLinkAccess(d))
	})
}
