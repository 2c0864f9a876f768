// Package export packages a project as a standalone WebChuGL web app.
package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/klauspost/compress/zip"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/petervdpas/chuckide/internal/project"
)

var log = logging.Logger("export")

//go:embed templates/shell.html templates/sw.js
var templatesFS embed.FS

const DefaultTitle = "WebChuGL"

var (
	ErrNoScript     = errors.New("project has no script to run")
	ErrMainNotFound = errors.New("main file is not a script in the project")
)

type Options struct {
	Title    string
	MainFile string
}

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", mhtml.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// ResolveMain picks the entry script: main when given, else active when it
// is a script, else the first script.
func ResolveMain(main, active string, files []project.Entry) (string, error) {
	var first string
	has := map[string]bool{}
	for _, f := range files {
		if project.IsScriptName(f.Name) {
			has[f.Name] = true
			if first == "" {
				first = f.Name
			}
		}
	}
	switch {
	case first == "":
		return "", ErrNoScript
	case main != "":
		if !has[main] {
			return "", fmt.Errorf("%w: %s", ErrMainNotFound, main)
		}
		return main, nil
	case has[active]:
		return active, nil
	default:
		return first, nil
	}
}

// ZipName is the download name of the export.
func ZipName(title, main string) string {
	if title != "" {
		return title + " Project.zip"
	}
	stem, _, _ := strings.Cut(main, ".")
	return stem + " Project.zip"
}

// Build writes the export zip: index.html, bundle.zip holding every
// project file, and sw.js.
func Build(w io.Writer, opt Options, files []project.Entry) error {
	main, err := ResolveMain(opt.MainFile, "", files)
	if err != nil {
		return err
	}
	title := opt.Title
	if title == "" {
		title = DefaultTitle
	}

	index, err := renderIndex(title, main)
	if err != nil {
		return err
	}
	sw, err := asset("templates/sw.js", "application/javascript")
	if err != nil {
		return err
	}
	bundle, err := bundleZip(files)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range []struct {
		name string
		data []byte
	}{
		{"index.html", index},
		{"bundle.zip", bundle},
		{"sw.js", sw},
	} {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("export %s: %w", f.name, err)
		}
		if _, err := fw.Write(f.data); err != nil {
			return fmt.Errorf("export %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func renderIndex(title, main string) ([]byte, error) {
	raw, err := templatesFS.ReadFile("templates/shell.html")
	if err != nil {
		return nil, err
	}
	s := strings.ReplaceAll(string(raw), "{{{ TITLE }}}", html.EscapeString(title))
	s = strings.ReplaceAll(s, "{{{ MAIN_FILE }}}", html.EscapeString(main))
	return minifyOrRaw("text/html", "shell.html", []byte(s)), nil
}

func asset(path, mime string) ([]byte, error) {
	raw, err := templatesFS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return minifyOrRaw(mime, path, raw), nil
}

func minifyOrRaw(mime, name string, raw []byte) []byte {
	out, err := minifier.Bytes(mime, raw)
	if err != nil {
		log.Warnf("minify %s: %v (using original)", name, err)
		return raw
	}
	return out
}

func bundleZip(files []project.Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	return buf.Bytes(), nil
}
