package handlers

import (
	"net/http"

	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// DebugStorage dumps storage keys, sizes and an integrity report.
// Development mode only.
func DebugStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := d.Engine.DebugStorageState(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type forceMigrationRequest struct {
	FromVersion string `json:"fromVersion"`
	ToVersion   string `json:"toVersion"`
}

// ForceMigration runs migration steps for an arbitrary version pair.
// Development mode only.
func ForceMigration(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forceMigrationRequest
		if err := decodeBody(r, &req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.FromVersion == "" || req.ToVersion == "" {
			writeBadRequest(w, "fromVersion and toVersion are required")
			return
		}

		result, err := d.Engine.ForceMigration(r.Context(), req.FromVersion, req.ToVersion)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// NukeStorage clears every stored key. Development mode only.
func NukeStorage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Engine.NukeStorage(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		d.Store.Cache().InvalidateAll()
		w.WriteHeader(http.StatusNoContent)
	}
}
