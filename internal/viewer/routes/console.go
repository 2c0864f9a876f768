// internal/viewer/routes/console.go

package routes

import "net/http"

func registerConsoleRoutes(mux *http.ServeMux, d Deps) {
	if d.Console == nil {
		return
	}
	mux.HandleFunc("/api/console", d.Console.ServeJSON)
	mux.HandleFunc("/api/console/stream", d.Console.ServeSSE)

	// POST /api/console/print: output captured from the audio runtime.
	// Text may hold several lines; a trailing partial line waits for the
	// next write.
	handlePost(mux, "/api/console/print", func(w http.ResponseWriter, r *http.Request, req struct {
		Text string `json:"text"`
	}) {
		if _, err := d.Console.Write([]byte(req.Text)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	handlePost(mux, "/api/console/clear", func(w http.ResponseWriter, r *http.Request, _ struct{}) {
		d.Console.Clear()
		w.WriteHeader(http.StatusNoContent)
	})
}
