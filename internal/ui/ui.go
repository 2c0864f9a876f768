// internal/ui/ui.go

package ui

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS
