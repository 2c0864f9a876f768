// internal/viewer/routes/storage.go

package routes

import (
	"net/http"
	"strings"
)

func registerStorageRoutes(mux *http.ServeMux, d Deps) {
	// GET /api/config: effective configuration
	handleGet(mux, "/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"path": d.CfgPath, "config": d.Cfg})
	})

	if d.KV == nil {
		return
	}

	// GET /api/storage/keys: local only, lists what the autosave wrote
	handleGet(mux, "/api/storage/keys", func(w http.ResponseWriter, r *http.Request) {
		if !isLocalRequest(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		keys, err := d.KV.Keys()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"db": d.KV.Path(), "keys": keys})
	})

	// POST /api/storage/delete {key}: local only, drops one stored key
	handlePost(mux, "/api/storage/delete", func(w http.ResponseWriter, r *http.Request, req struct {
		Key string `json:"key"`
	}) {
		if !isLocalRequest(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		key := strings.TrimSpace(req.Key)
		if key == "" {
			http.Error(w, "missing key", http.StatusBadRequest)
			return
		}
		if err := d.KV.Delete(key); err != nil {
			writeErr(w, err)
			return
		}
		log.Infof("storage key %s deleted", key)
		w.WriteHeader(http.StatusNoContent)
	})
}
