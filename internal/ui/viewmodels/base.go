// internal/ui/viewmodels/base.go

package viewmodels

type BaseVM struct {
	Title       string
	Active      string
	ContentTmpl string
	Debug       bool
}
