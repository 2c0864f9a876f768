package routes

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/petervdpas/chuckide/internal/project"
)

// contentTypeForPath returns the Content-Type a project file is served
// with. Editable files are always plain text, html and js included, so
// the browser never renders or runs them.
func contentTypeForPath(name string, data []byte) string {
	if project.IsPlaintextName(name) {
		return "text/plain; charset=utf-8"
	}

	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".svg":
		return "image/svg+xml"
	}

	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}

	return http.DetectContentType(data)
}
