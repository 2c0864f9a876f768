// internal/viewer/routes/home.go

package routes

import (
	"net/http"

	"github.com/petervdpas/chuckide/internal/ui/render"
	"github.com/petervdpas/chuckide/internal/ui/viewmodels"
)

const homeConsoleLines = 50

func registerHomeRoutes(mux *http.ServeMux, d Deps) {
	handleGet(mux, "/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		vm := viewmodels.HomeVM{
			BaseVM: viewmodels.BaseVM{
				Title:       "Project",
				Active:      "home",
				ContentTmpl: "home",
				Debug:       d.Cfg.Viewer.Debug,
			},
			ActiveFile: d.Project.Active(),
			Files:      d.Project.Files(),
		}
		if d.Examples != nil {
			vm.Examples = d.Examples.List()
		}
		if d.Runtime != nil {
			vm.RuntimeDir = d.Runtime.RootAbs()
		}
		if d.Console != nil {
			entries := d.Console.Snapshot()
			if len(entries) > homeConsoleLines {
				entries = entries[len(entries)-homeConsoleLines:]
			}
			vm.Console = entries
		}
		render.Render(w, vm)
	})
}
