package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// ListLinks returns every stored link, optionally sorted.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.Store.Links(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, applySort(links, r))
	}
}

// GetLink returns a single link by id.
func GetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		link, err := d.Store.LinkByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if link == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "link not found"})
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

// CreateLink adds a new link.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var nl data.NewLink
		if err := decodeBody(r, &nl); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if nl.URL == "" || nl.Title == "" || nl.CategoryID == "" {
			writeBadRequest(w, "url, title and categoryId are required")
			return
		}

		link, err := d.Store.AddLink(r.Context(), nl)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

// UpdateLink applies a partial update to a link.
func UpdateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var update data.LinkUpdate
		if err := decodeBody(r, &update); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}

		link, err := d.Store.UpdateLink(r.Context(), id, update)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

// DeleteLink removes a link.
func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Store.DeleteLink(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RecordLinkAccess bumps the access counter of a link.
func RecordLinkAccess(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		link, err := d.Store.RecordLinkAccess(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}

// SearchLinks filters links by query, category, favorite flag and tags.
func SearchLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := domain.SearchOptions{
			Query:      strings.TrimSpace(q.Get("q")),
			CategoryID: q.Get("category"),
		}
		if v := q.Get("favorite"); v != "" {
			fav, err := strconv.ParseBool(v)
			if err != nil {
				writeBadRequest(w, "favorite must be a boolean")
				return
			}
			opts.IsFavorite = &fav
		}
		if v := q.Get("tags"); v != "" {
			for _, tag := range strings.Split(v, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					opts.Tags = append(opts.Tags, tag)
				}
			}
		}

		links, err := d.Store.SearchLinks(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, applySort(links, r))
	}
}

// applySort orders links by the sortBy/order query parameters when
// present.
func applySort(links []domain.Link, r *http.Request) []domain.Link {
	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		return links
	}
	order := domain.SortOrder(r.URL.Query().Get("order"))
	return domain.SortLinks(links, domain.SortField(sortBy), order)
}
