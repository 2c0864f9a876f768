// internal/viewer/routes/helpers.go

package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/petervdpas/chuckide/internal/content"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/export"
	"github.com/petervdpas/chuckide/internal/project"
)

const maxJSONBody = 8 << 20

func handleGet(mux *http.ServeMux, path string, fn http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	})
}

// handlePost decodes the JSON body into T before calling fn. An empty body
// leaves T zero.
func handlePost[T any](mux *http.ServeMux, path string, fn func(w http.ResponseWriter, r *http.Request, req T)) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req T
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		fn(w, r, req)
	})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("write json: %v", err)
	}
}

// writeErr maps domain errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, project.ErrExists):
		return http.StatusConflict
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, examples.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, export.ErrMainNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrEmptyName),
		errors.Is(err, project.ErrInvalidName),
		errors.Is(err, export.ErrNoScript),
		errors.Is(err, examples.ErrOutsideRoot),
		errors.Is(err, content.ErrOutsideRoot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
