// Package examples serves the example gallery from a directory on disk.
// Every .ck file is an example, other files are data assets examples can
// load, and a <stem>.md beside an example is its description.
package examples

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var log = logging.Logger("examples")

var (
	ErrNotFound    = errors.New("example not found")
	ErrOutsideRoot = errors.New("path outside examples directory")
)

const (
	KindScript = "script"
	KindData   = "data"
)

type Example struct {
	Name        string `json:"name"` // dir-relative, forward slashes
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"` // rendered HTML
}

// Loader is the part of the project an example is loaded into.
type Loader interface {
	LoadExample(name string, data []byte) error
	AddFile(name string, data []byte) error
}

type Catalog struct {
	dir string
	md  goldmark.Markdown

	mu     sync.RWMutex
	items  []Example
	byName map[string]int

	watcher  *fsnotify.Watcher
	rescan   func(func())
	closed   chan struct{}
	onChange func()
}

// Open scans dir and, when watch is set, rescans it whenever it changes.
// A missing directory is an empty catalog.
func Open(dir string, watch bool) (*Catalog, error) {
	c := &Catalog{
		dir:    dir,
		md:     newMarkdown(),
		byName: map[string]int{},
		rescan: debounce.New(100 * time.Millisecond),
		closed: make(chan struct{}),
	}
	if err := c.Rescan(); err != nil {
		return nil, err
	}
	if !watch {
		return c, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create examples dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	c.watcher = watcher
	if err := c.watchDirs(); err != nil {
		watcher.Close()
		return nil, err
	}
	go c.watchLoop()
	return c, nil
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// OnChange registers fn to run after every rescan triggered by the watcher.
func (c *Catalog) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Catalog) Dir() string { return c.dir }

func (c *Catalog) List() []Example {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Example(nil), c.items...)
}

func (c *Catalog) Get(name string) (Example, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[name]
	if !ok {
		return Example{}, false
	}
	return c.items[i], true
}

// Read returns the raw bytes of a catalogued file.
func (c *Catalog) Read(name string) ([]byte, error) {
	if _, ok := c.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	abs, err := c.abs(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b, err
}

// LoadInto adds an example to the project. Scripts replace the blank
// default file; data assets are added beside the existing files.
func (c *Catalog) LoadInto(p Loader, name string) (Example, error) {
	ex, ok := c.Get(name)
	if !ok {
		return Example{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := c.Read(name)
	if err != nil {
		return Example{}, err
	}
	base := path.Base(ex.Name)
	if ex.Kind == KindScript {
		err = p.LoadExample(base, data)
	} else {
		err = p.AddFile(base, data)
	}
	return ex, err
}

// Rescan rebuilds the catalog from disk.
func (c *Catalog) Rescan() error {
	var items []Example
	descs := map[string]string{}

	err := filepath.WalkDir(c.dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == c.dir && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != c.dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if strings.HasSuffix(rel, ".md") {
			descs[strings.TrimSuffix(rel, ".md")] = p
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		ex := Example{
			Name:  rel,
			Title: strings.TrimSuffix(path.Base(rel), path.Ext(rel)),
			Kind:  KindData,
			Size:  info.Size(),
		}
		if strings.HasSuffix(rel, ".ck") {
			ex.Kind = KindScript
		}
		items = append(items, ex)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan examples: %w", err)
	}

	for i := range items {
		if items[i].Kind != KindScript {
			continue
		}
		src, ok := descs[strings.TrimSuffix(items[i].Name, ".ck")]
		if !ok {
			continue
		}
		items[i].Description = c.render(src)
	}

	// Scripts first, then data, each by name.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == KindScript
		}
		return items[i].Name < items[j].Name
	})

	byName := make(map[string]int, len(items))
	for i, ex := range items {
		byName[ex.Name] = i
	}

	c.mu.Lock()
	c.items = items
	c.byName = byName
	c.mu.Unlock()
	return nil
}

func (c *Catalog) render(src string) string {
	data, err := os.ReadFile(src)
	if err != nil {
		log.Warnf("read description %s: %v", src, err)
		return ""
	}
	var buf bytes.Buffer
	if err := c.md.Convert(data, &buf); err != nil {
		log.Warnf("render description %s: %v", src, err)
		return ""
	}
	return buf.String()
}

func (c *Catalog) abs(name string) (string, error) {
	root := filepath.Clean(c.dir)
	abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(name)))
	if abs == root || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// Close stops the watcher.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	return c.watcher.Close()
}

func (c *Catalog) watchDirs() error {
	return filepath.WalkDir(c.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != c.dir {
			return fs.SkipDir
		}
		if err := c.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (c *Catalog) watchLoop() {
	for {
		select {
		case <-c.closed:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New subdirectories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := c.watcher.Add(event.Name); err != nil {
						log.Warnf("watch %s: %v", event.Name, err)
					}
				}
			}
			c.rescan(c.reload)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

func (c *Catalog) reload() {
	select {
	case <-c.closed:
		return
	default:
	}
	if err := c.Rescan(); err != nil {
		log.Warnf("hot reload failed: %v", err)
		return
	}
	c.mu.RLock()
	fn := c.onChange
	n := len(c.items)
	c.mu.RUnlock()
	log.Debugf("examples rescanned: %d entries", n)
	if fn != nil {
		fn()
	}
}
