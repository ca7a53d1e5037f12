package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// ListCategories returns every category sorted by sortOrder.
func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := d.Store.Categories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

// GetCategory returns a single category by id.
func GetCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		category, err := d.Store.CategoryByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if category == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "category not found"})
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

// CreateCategory adds a new category.
func CreateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var nc data.NewCategory
		if err := decodeBody(r, &nc); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if nc.Name == "" || nc.Color == "" || nc.Icon == "" {
			writeBadRequest(w, "name, color and icon are required")
			return
		}

		category, err := d.Store.AddCategory(r.Context(), nc)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

// UpdateCategory applies a partial update to a category.
func UpdateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var update data.CategoryUpdate
		if err := decodeBody(r, &update); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}

		category, err := d.Store.UpdateCategory(r.Context(), id, update)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

// DeleteCategory removes a category after moving its links to the
// misc fallback.
func DeleteCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Store.DeleteCategory(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CategoryLinks returns the links of one category sorted by sortOrder.
func CategoryLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		category, err := d.Store.CategoryByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if category == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "category not found"})
			return
		}

		links, err := d.Store.LinksInCategory(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	}
}
