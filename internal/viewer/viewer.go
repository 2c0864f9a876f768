package viewer

import (
	"context"
	"errors"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/chuckide/internal/config"
	"github.com/petervdpas/chuckide/internal/console"
	"github.com/petervdpas/chuckide/internal/content"
	"github.com/petervdpas/chuckide/internal/editor"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/project"
	"github.com/petervdpas/chuckide/internal/storage"
	"github.com/petervdpas/chuckide/internal/viewer/routes"
)

var log = logging.Logger("viewer")

const shutdownTimeout = 5 * time.Second

type Viewer struct {
	Project  *project.System
	Editor   *editor.Buffer
	Console  *console.Console
	Examples *examples.Catalog
	Runtime  *content.Store
	KV       *storage.KV

	CfgPath string
	Cfg     config.Config
}

// Handler builds the full HTTP surface.
func Handler(v Viewer) http.Handler {
	mux := http.NewServeMux()

	deps := routes.Deps{
		Project:  v.Project,
		Editor:   v.Editor,
		Examples: v.Examples,
		Runtime:  v.Runtime,
		KV:       v.KV,
		CfgPath:  v.CfgPath,
		Cfg:      v.Cfg,
	}
	// A nil *console.Console must stay a nil interface.
	if v.Console != nil {
		deps.Console = v.Console
	}
	routes.Register(mux, deps)

	return noCache(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, v Viewer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(v),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("viewer listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warnf("viewer shutdown: %v", err)
		return err
	}
	return nil
}
