package examples

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

type fakeLoader struct {
	examples map[string]string
	added    map[string]string
}

func (f *fakeLoader) LoadExample(name string, data []byte) error {
	f.examples[name] = string(data)
	return nil
}

func (f *fakeLoader) AddFile(name string, data []byte) error {
	f.added[name] = string(data)
	return nil
}

func TestCatalogScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "basic", "blit.ck"), "Blit s => dac;")
	writeFile(t, filepath.Join(dir, "basic", "blit.md"), "# Blit\n\n```chuck\nBlit s => dac;\n```\n")
	writeFile(t, filepath.Join(dir, "data", "kick.wav"), "RIFF")
	writeFile(t, filepath.Join(dir, "a.ck"), "1 => int x;")
	writeFile(t, filepath.Join(dir, ".hidden", "skip.ck"), "")

	c, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	list := c.List()
	var got []string
	for _, ex := range list {
		got = append(got, ex.Name)
	}
	if strings.Join(got, ",") != "a.ck,basic/blit.ck,data/kick.wav" {
		t.Fatalf("list = %v", got)
	}

	blit, ok := c.Get("basic/blit.ck")
	if !ok || blit.Kind != KindScript || blit.Title != "blit" {
		t.Fatalf("blit = %+v", blit)
	}
	if !strings.Contains(blit.Description, "<h1>Blit</h1>") {
		t.Fatalf("description = %q", blit.Description)
	}
	if kick, _ := c.Get("data/kick.wav"); kick.Kind != KindData || kick.Size != 4 {
		t.Fatalf("kick = %+v", kick)
	}
}

func TestCatalogMissingDir(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "none"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.List()) != 0 {
		t.Fatal("expected empty catalog")
	}
}

func TestLoadInto(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "basic", "blit.ck"), "Blit s => dac;")
	writeFile(t, filepath.Join(dir, "data", "kick.wav"), "RIFF")
	c, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	l := &fakeLoader{examples: map[string]string{}, added: map[string]string{}}
	if _, err := c.LoadInto(l, "basic/blit.ck"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadInto(l, "data/kick.wav"); err != nil {
		t.Fatal(err)
	}
	if l.examples["blit.ck"] != "Blit s => dac;" || l.added["kick.wav"] != "RIFF" {
		t.Fatalf("loader = %+v", l)
	}
	if _, err := c.LoadInto(l, "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWatcherPicksUpNewExample(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	changed := make(chan struct{}, 8)
	c.OnChange(func() { changed <- struct{}{} })

	writeFile(t, filepath.Join(dir, "new.ck"), "SinOsc s => dac;")

	deadline := time.After(5 * time.Second)
	for {
		if _, ok := c.Get("new.ck"); ok {
			return
		}
		select {
		case <-changed:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("watcher never picked up new.ck")
		}
	}
}
