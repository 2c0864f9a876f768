package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/chuckide/internal/config"
	"github.com/petervdpas/chuckide/internal/console"
	"github.com/petervdpas/chuckide/internal/content"
	"github.com/petervdpas/chuckide/internal/editor"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/project"
	"github.com/petervdpas/chuckide/internal/storage"
	"github.com/petervdpas/chuckide/internal/util"
	"github.com/petervdpas/chuckide/internal/viewer"
)

var log = logging.Logger("app")

type Options struct {
	ProjectDir string
	CfgPath    string
	Cfg        config.Config
	Open       bool // open the browser once the viewer is up
	Progress   func(step, total int, label string)
}

// Services is everything one project folder runs on.
type Services struct {
	KV       *storage.KV
	Console  *console.Console
	Editor   *editor.Buffer
	Runtime  *content.Store
	Project  *project.System
	Examples *examples.Catalog
}

// OpenServices wires storage, console, editor, runtime mirror, project and
// examples for the project folder dir. The project still holds only the
// default file; callers restore the autosave themselves.
func OpenServices(dir string, cfg config.Config) (*Services, error) {
	paths := cfg.Resolve(dir)

	kv, err := storage.Open(paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	con := console.New(cfg.Viewer.ConsoleLines)
	buf := editor.New()

	rt, err := content.NewStore(paths.RuntimeDir)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("runtime mirror: %w", err)
	}
	if err := rt.EnsureRoot(); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("runtime mirror: %w", err)
	}

	sys := project.New(project.Options{
		Editor:      buf,
		Mirror:      rt,
		Store:       kv,
		Notifier:    con,
		DefaultName: cfg.Project.DefaultFile,
		SaveDelay:   time.Duration(cfg.Project.SaveDebounce) * time.Millisecond,
		MinQuery:    cfg.Search.MinQuery,
	})
	buf.OnChange(sys.UpdateActiveContent)

	ex, err := examples.Open(paths.ExamplesDir, cfg.Viewer.WatchExamples)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("examples: %w", err)
	}
	ex.OnChange(func() {
		log.Infof("examples reloaded: %d entries", len(ex.List()))
	})

	return &Services{
		KV:       kv,
		Console:  con,
		Editor:   buf,
		Runtime:  rt,
		Project:  sys,
		Examples: ex,
	}, nil
}

// Close writes any pending save before closing the database.
func (s *Services) Close() error {
	s.Project.Flush()
	var errs []error
	if err := s.Examples.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close examples: %w", err))
	}
	if err := s.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

// Run serves the IDE for one project folder until ctx is cancelled.
func Run(ctx context.Context, opt Options) error {
	cfg := opt.Cfg
	SetLogLevel(cfg.Log.Level, cfg.Viewer.Debug)
	logBanner(opt.ProjectDir, opt.CfgPath)

	emit := opt.Progress
	if emit == nil {
		emit = func(int, int, string) {}
	}
	const total = 3

	emit(1, total, "Opening project")
	svc, err := OpenServices(opt.ProjectDir, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	emit(2, total, "Restoring autosave")
	res := svc.Project.LoadAutoSave()
	log.Infof("restored %s project: %d file(s), active %s", res.Source, res.Files, svc.Project.Active())

	emit(3, total, "Starting viewer")
	listenAddr, url, tcpAddr := NormalizeLocalViewer(cfg.Viewer.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Start(ctx, listenAddr, viewer.Viewer{
			Project:  svc.Project,
			Editor:   svc.Editor,
			Console:  svc.Console,
			Examples: svc.Examples,
			Runtime:  svc.Runtime,
			KV:       svc.KV,
			CfgPath:  opt.CfgPath,
			Cfg:      cfg,
		})
	}()

	if err := WaitTCP(tcpAddr, 5*time.Second); err != nil {
		select {
		case serr := <-errCh:
			if serr != nil {
				return fmt.Errorf("viewer: %w", serr)
			}
		default:
		}
		return err
	}
	log.Infof("IDE ready at %s", url)
	if opt.Open {
		if err := util.OpenURL(url); err != nil {
			log.Warnf("open browser: %v", err)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// SetLogLevel applies level to every subsystem. Debug wins over level.
func SetLogLevel(level string, debug bool) {
	if debug {
		level = "debug"
	}
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		lvl = logging.LevelInfo
	}
	logging.SetAllLoggers(lvl)
}
