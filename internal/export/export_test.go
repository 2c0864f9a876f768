package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/petervdpas/chuckide/internal/project"
)

func readZip(t *testing.T, b []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatal(err)
	}
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = data
	}
	return out
}

func TestBuild(t *testing.T) {
	files := []project.Entry{
		{Name: "main.ck", Data: []byte("GG.nextFrame() => now;")},
		{Name: "helper.ck", Data: []byte("fun void f(){}")},
		{Name: "kick.wav", Data: []byte{0, 1, 2, 3}},
	}
	var buf bytes.Buffer
	if err := Build(&buf, Options{Title: "Lights <Live>", MainFile: "helper.ck"}, files); err != nil {
		t.Fatal(err)
	}

	out := readZip(t, buf.Bytes())
	for _, name := range []string{"index.html", "bundle.zip", "sw.js"} {
		if _, ok := out[name]; !ok {
			t.Fatalf("missing %s in export", name)
		}
	}

	index := string(out["index.html"])
	if strings.Contains(index, "{{{") {
		t.Fatal("unsubstituted placeholder in index.html")
	}
	if !strings.Contains(index, "Lights &lt;Live") || strings.Contains(index, "<Live>") {
		t.Fatalf("title not substituted: %s", index)
	}
	if !strings.Contains(index, "helper.ck") {
		t.Fatal("main file not substituted")
	}

	bundle := readZip(t, out["bundle.zip"])
	if len(bundle) != 3 || !bytes.Equal(bundle["kick.wav"], []byte{0, 1, 2, 3}) {
		t.Fatalf("bundle = %v", bundle)
	}
	if !strings.Contains(string(out["sw.js"]), "Cross-Origin-Embedder-Policy") {
		t.Fatal("sw.js content missing")
	}
}

func TestBuildDefaultTitle(t *testing.T) {
	var buf bytes.Buffer
	files := []project.Entry{{Name: "main.ck", Data: nil}}
	if err := Build(&buf, Options{}, files); err != nil {
		t.Fatal(err)
	}
	index := string(readZip(t, buf.Bytes())["index.html"])
	if !strings.Contains(index, DefaultTitle) {
		t.Fatal("default title missing")
	}
}

func TestResolveMain(t *testing.T) {
	files := []project.Entry{{Name: "a.ck"}, {Name: "b.ck"}, {Name: "notes.txt"}}
	cases := []struct {
		main, active, want string
		err                error
	}{
		{"b.ck", "a.ck", "b.ck", nil},
		{"", "b.ck", "b.ck", nil},
		{"", "notes.txt", "a.ck", nil},
		{"notes.txt", "", "", ErrMainNotFound},
	}
	for _, c := range cases {
		got, err := ResolveMain(c.main, c.active, files)
		if !errors.Is(err, c.err) || got != c.want {
			t.Fatalf("ResolveMain(%q, %q) = %q, %v", c.main, c.active, got, err)
		}
	}
	if _, err := ResolveMain("", "", []project.Entry{{Name: "notes.txt"}}); !errors.Is(err, ErrNoScript) {
		t.Fatalf("expected ErrNoScript, got %v", err)
	}
}

func TestZipName(t *testing.T) {
	if got := ZipName("Lights", "main.ck"); got != "Lights Project.zip" {
		t.Fatalf("got %q", got)
	}
	if got := ZipName("", "main.ck"); got != "main Project.zip" {
		t.Fatalf("got %q", got)
	}
}
