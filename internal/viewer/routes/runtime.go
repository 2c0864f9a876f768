// internal/viewer/routes/runtime.go

package routes

import "net/http"

func registerRuntimeRoutes(mux *http.ServeMux, d Deps) {
	if d.Runtime == nil {
		return
	}

	// GET /api/runtime/files: what the runtime can see
	handleGet(mux, "/api/runtime/files", func(w http.ResponseWriter, r *http.Request) {
		files, err := d.Runtime.List(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"root": d.Runtime.RootAbs(), "files": files})
	})

	// GET /api/runtime/file?path=drums.ck
	handleGet(mux, "/api/runtime/file", func(w http.ResponseWriter, r *http.Request) {
		rel := r.URL.Query().Get("path")
		data, etag, err := d.Runtime.Read(r.Context(), rel)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("ETag", `"`+etag+`"`)
		w.Header().Set("Content-Type", contentTypeForPath(rel, data))
		_, _ = w.Write(data)
	})
}
