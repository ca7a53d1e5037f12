package handlers

import (
	"net/http"

	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// GetSettings returns the stored settings, seeding defaults on first
// call.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := d.Store.Settings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

// UpdateSettings applies a partial settings update.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update data.SettingsUpdate
		if err := decodeBody(r, &update); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}

		settings, err := d.Store.UpdateSettings(r.Context(), update)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

// ResetSettings replaces settings with fresh defaults.
func ResetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := d.Store.ResetSettings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}
