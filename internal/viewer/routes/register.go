// internal/viewer/routes/register.go
package routes

import (
	"net/http"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/chuckide/internal/config"
	"github.com/petervdpas/chuckide/internal/console"
	"github.com/petervdpas/chuckide/internal/content"
	"github.com/petervdpas/chuckide/internal/editor"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/project"
	"github.com/petervdpas/chuckide/internal/storage"
)

var log = logging.Logger("viewer")

type Console interface {
	Print(msg string)
	Write(p []byte) (int, error)
	Clear()
	Snapshot() []console.Entry
	ServeJSON(w http.ResponseWriter, r *http.Request)
	ServeSSE(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Project  *project.System
	Editor   *editor.Buffer
	Console  Console
	Examples *examples.Catalog // nil when no examples dir is configured
	Runtime  *content.Store
	KV       *storage.KV

	CfgPath string
	Cfg     config.Config
}

func Register(mux *http.ServeMux, d Deps) {
	registerHomeRoutes(mux, d)
	registerProjectRoutes(mux, d)
	registerExportRoutes(mux, d)
	registerEditorSocket(mux, d)
	registerConsoleRoutes(mux, d)
	registerExampleRoutes(mux, d)
	registerRuntimeRoutes(mux, d)
	registerStorageRoutes(mux, d)
}
