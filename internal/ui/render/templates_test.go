package render

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petervdpas/chuckide/internal/console"
	"github.com/petervdpas/chuckide/internal/examples"
	"github.com/petervdpas/chuckide/internal/project"
	"github.com/petervdpas/chuckide/internal/ui/viewmodels"
)

func TestRenderHome(t *testing.T) {
	vm := viewmodels.HomeVM{
		BaseVM:     viewmodels.BaseVM{Title: "Project", ContentTmpl: "home"},
		ActiveFile: "drums.ck",
		Files: []project.FileInfo{
			{Name: "drums.ck", Script: true, Plaintext: true, Active: true, Size: 2048},
			{Name: "kick.wav", Size: 10},
		},
		Examples: []examples.Example{{Name: "sine.ck", Title: "sine", Description: "<p>A <em>sine</em></p>"}},
		Console:  []console.Entry{{TS: time.Date(2026, 3, 4, 15, 4, 5, 0, time.UTC), Msg: "loaded <file>"}},
	}

	rec := httptest.NewRecorder()
	Render(rec, vm)
	body := rec.Body.String()

	for _, want := range []string{
		`<tr class="active">`,
		"drums.ck",
		"2.0 kB",
		"binary",
		"<em>sine</em>",
		"15:04:05 loaded &lt;file&gt;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page lacks %q\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
}
