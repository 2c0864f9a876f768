// internal/viewer/routes/export.go

package routes

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/petervdpas/chuckide/internal/export"
)

func registerExportRoutes(mux *http.ServeMux, d Deps) {
	// GET /api/project/export?title=Demo&main=drums.ck downloads the web app zip
	handleGet(mux, "/api/project/export", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		entries := d.Project.Entries()

		main, err := export.ResolveMain(q.Get("main"), d.Project.Active(), entries)
		if err != nil {
			writeErr(w, err)
			return
		}
		title := q.Get("title")
		if title == "" {
			title = d.Cfg.Export.DefaultTitle
		}

		var buf bytes.Buffer
		if err := export.Build(&buf, export.Options{Title: title, MainFile: main}, entries); err != nil {
			log.Errorf("export: %v", err)
			writeErr(w, err)
			return
		}

		name := export.ZipName(title, main)
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = w.Write(buf.Bytes())

		if d.Console != nil {
			d.Console.Print("exported " + name)
		}
	})
}
