package handlers

import (
	"net/http"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// DataIntegrity runs the integrity scan and returns its report.
func DataIntegrity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := d.Engine.ValidateDataIntegrity(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// AutoRecover attempts to repair whatever the integrity scan flagged.
func AutoRecover(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := d.Engine.AutoRecoverCorruptedData(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type backupResponse struct {
	Created bool `json:"created"`
}

// CreateBackup snapshots the current data under the backup key.
func CreateBackup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created := d.Engine.CreateBackup(r.Context(), domain.CurrentAppVersion)
		status := http.StatusOK
		if !created {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, backupResponse{Created: created})
	}
}

// RestoreBackup restores the stored backup.
func RestoreBackup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := d.Engine.RestoreFromBackup(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ResetData replaces all stored data with defaults.
func ResetData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := d.Engine.ResetToDefaults(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if err := d.Store.RefreshAllCaches(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
