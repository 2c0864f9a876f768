package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petervdpas/chuckide/internal/config"
	"github.com/petervdpas/chuckide/internal/export"
	"github.com/petervdpas/chuckide/internal/project"
	"github.com/petervdpas/chuckide/internal/storage"
)

var ErrNoProject = errors.New("no saved project")

type ExportOptions struct {
	ProjectDir string
	Cfg        config.Config
	Title      string
	MainFile   string
	Out        string // default: "<zip name>" inside ProjectDir
}

// Export writes the web app zip for the autosaved project without
// starting the viewer. It returns the path written.
func Export(opt ExportOptions) (string, error) {
	paths := opt.Cfg.Resolve(opt.ProjectDir)
	kv, err := storage.Open(paths.DataDir)
	if err != nil {
		return "", fmt.Errorf("open storage: %w", err)
	}
	defer kv.Close()

	sys := project.New(project.Options{
		Store:       kv,
		DefaultName: opt.Cfg.Project.DefaultFile,
	})
	if !sys.Load() {
		return "", ErrNoProject
	}

	entries := sys.Entries()
	main, err := export.ResolveMain(opt.MainFile, sys.Active(), entries)
	if err != nil {
		return "", err
	}
	title := opt.Title
	if title == "" {
		title = opt.Cfg.Export.DefaultTitle
	}

	out := opt.Out
	if out == "" {
		// The title is free text; keep the zip inside the project folder.
		out = filepath.Join(opt.ProjectDir, zipFileName(export.ZipName(title, main)))
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := export.Build(f, export.Options{Title: title, MainFile: main}, entries); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	log.Infof("exported %d file(s), main %s, to %s", len(entries), main, out)
	return out, nil
}

var pathSeparators = strings.NewReplacer("/", "_", `\`, "_")

func zipFileName(name string) string {
	return pathSeparators.Replace(name)
}
