// internal/viewer/routes/project.go

package routes

import (
	"io"
	"net/http"
	"strconv"

	"github.com/petervdpas/chuckide/internal/project"
)

const maxUploadMemory = 32 << 20

type listing struct {
	Active  string             `json:"active"`
	Scripts int                `json:"scripts"`
	Files   []project.FileInfo `json:"files"`
}

func listingOf(p *project.System) listing {
	return listing{
		Active:  p.Active(),
		Scripts: p.NumScripts(),
		Files:   p.Files(),
	}
}

func registerProjectRoutes(mux *http.ServeMux, d Deps) {
	handleGet(mux, "/api/project", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, listingOf(d.Project))
	})

	// GET /api/project/file?name=drums.ck
	handleGet(mux, "/api/project/file", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		data, err := d.Project.Content(name)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeForPath(name, data))
		_, _ = w.Write(data)
	})

	handlePost(mux, "/api/project/files", func(w http.ResponseWriter, r *http.Request, req struct {
		Name string `json:"name"`
	}) {
		if err := d.Project.CreateFile(req.Name); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, listingOf(d.Project))
	})

	handlePost(mux, "/api/project/select", func(w http.ResponseWriter, r *http.Request, req struct {
		Name string `json:"name"`
	}) {
		if err := d.Project.SetActiveFile(req.Name); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, listingOf(d.Project))
	})

	// A keystroke from a client without a socket. It goes through the
	// editor buffer so connected editors see it too.
	handlePost(mux, "/api/project/content", func(w http.ResponseWriter, r *http.Request, req struct {
		Text string `json:"text"`
	}) {
		d.Editor.Edit("http", req.Text)
		writeJSON(w, map[string]any{
			"active":  d.Project.Active(),
			"version": d.Editor.Version(),
		})
	})

	handlePost(mux, "/api/project/rename", func(w http.ResponseWriter, r *http.Request, req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}) {
		if err := d.Project.RenameFile(req.From, req.To); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, listingOf(d.Project))
	})

	handlePost(mux, "/api/project/delete", func(w http.ResponseWriter, r *http.Request, req struct {
		Name string `json:"name"`
	}) {
		if err := d.Project.RemoveFile(req.Name); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, listingOf(d.Project))
	})

	handlePost(mux, "/api/project/new", func(w http.ResponseWriter, r *http.Request, _ struct{}) {
		d.Project.Clear()
		writeJSON(w, listingOf(d.Project))
	})

	handlePost(mux, "/api/project/reveal", func(w http.ResponseWriter, r *http.Request, req struct {
		Name string `json:"name"`
		Line int    `json:"line"`
	}) {
		if err := d.Project.Reveal(req.Name, req.Line); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"active": d.Project.Active(), "line": req.Line})
	})

	// GET /api/project/search?q=SinOsc[&limit=50]
	handleGet(mux, "/api/project/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit := d.Cfg.Search.MaxResults
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
			limit = n
		}
		matches := d.Project.Search(q, limit)
		if matches == nil {
			matches = []project.Match{}
		}
		writeJSON(w, map[string]any{"query": q, "matches": matches})
	})

	// POST /api/project/upload (multipart, field "files")
	mux.HandleFunc("/api/project/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			http.Error(w, "no files", http.StatusBadRequest)
			return
		}
		uploads := make([]project.Upload, 0, len(headers))
		for _, fh := range headers {
			uploads = append(uploads, project.Upload{
				Name: fh.Filename,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
		writeJSON(w, d.Project.Upload(r.Context(), uploads))
	})
}
