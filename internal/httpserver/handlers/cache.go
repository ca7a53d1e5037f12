package handlers

import (
	"net/http"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
)

// CacheStats reports cache entry counts and estimated size.
func CacheStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Cache.Stats())
	}
}

// RefreshCache invalidates and reloads either one cache key (?key=)
// or all of them.
func RefreshCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" {
			if err := d.Store.RefreshAllCaches(r.Context()); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"refreshed": "all"})
			return
		}

		switch cache.Key(key) {
		case cache.KeySettings, cache.KeyCategories, cache.KeyLinks:
		default:
			writeBadRequest(w, "unknown cache key")
			return
		}

		if err := d.Store.RefreshCache(r.Context(), cache.Key(key)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"refreshed": key})
	}
}
