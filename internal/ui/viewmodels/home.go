// internal/ui/viewmodels/home.go

package viewmodels

import (
	"github.com/petervdpas/chuckide/internal/console"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/project"
)

// HomeVM is the project overview page.
type HomeVM struct {
	BaseVM

	ActiveFile string
	Files      []project.FileInfo
	Examples   []examples.Example
	Console    []console.Entry
	RuntimeDir string
}
