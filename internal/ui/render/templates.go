package render

import (
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/petervdpas/chuckide/internal/ui"
)

var (
	tmpl    *template.Template
	once    sync.Once
	initErr error
)

func InitTemplates() error {
	once.Do(func() {
		funcs := template.FuncMap{
			"clock":    func(t time.Time) string { return t.Format("15:04:05") },
			"isActive": func(active, key string) bool { return active == key },
			"safe":     func(s string) template.HTML { return template.HTML(s) },
			"size":     func(n int) string { return humanize.Bytes(uint64(n)) },
			"trim":     strings.TrimSpace,

			"include": func(name string, data any) template.HTML {
				if tmpl == nil {
					return template.HTML(`<pre class="err">templates not initialized</pre>`)
				}
				var b strings.Builder
				if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
					return template.HTML(`<pre class="err">` + html.EscapeString(err.Error()) + `</pre>`)
				}
				return template.HTML(b.String())
			},
		}

		var err error
		// ParseFS paths must match the embedded paths exactly.
		tmpl, err = template.New("root").Funcs(funcs).ParseFS(ui.TemplatesFS, "templates/*.html")
		if err != nil {
			initErr = err
			return
		}
	})
	return initErr
}

// Render executes the shared layout. The layout picks the page body via
// .ContentTmpl.
func Render(w http.ResponseWriter, data any) {
	if err := InitTemplates(); err != nil {
		http.Error(w, fmt.Sprintf("template init error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, fmt.Sprintf("template error: %v", err), http.StatusInternalServerError)
	}
}
