// internal/viewer/routes/examples.go

package routes

import (
	"fmt"
	"net/http"

	"github.com/petervdpas/chuckide/internal/examples"
)

func registerExampleRoutes(mux *http.ServeMux, d Deps) {
	handleGet(mux, "/api/examples", func(w http.ResponseWriter, r *http.Request) {
		list := []examples.Example{}
		if d.Examples != nil {
			list = d.Examples.List()
		}
		writeJSON(w, list)
	})

	// GET /api/examples/file?name=basic/sine.ck
	handleGet(mux, "/api/examples/file", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if d.Examples == nil {
			writeErr(w, fmt.Errorf("%w: %s", examples.ErrNotFound, name))
			return
		}
		data, err := d.Examples.Read(name)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeForPath(name, data))
		_, _ = w.Write(data)
	})

	handlePost(mux, "/api/examples/load", func(w http.ResponseWriter, r *http.Request, req struct {
		Name string `json:"name"`
	}) {
		if d.Examples == nil {
			writeErr(w, fmt.Errorf("%w: %s", examples.ErrNotFound, req.Name))
			return
		}
		ex, err := d.Examples.LoadInto(d.Project, req.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		if d.Console != nil {
			d.Console.Print("loaded example: " + ex.Title)
		}
		writeJSON(w, map[string]any{"example": ex, "project": listingOf(d.Project)})
	})
}
