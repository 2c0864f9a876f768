package project

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/chuckide/internal/util"
)

var log = logging.Logger("project")

const (
	DefaultName      = "untitled.ck"
	DefaultSaveDelay = 300 * time.Millisecond
)

// Mirror receives a copy of every file added to the project so the
// runtime can read it. Errors are logged and otherwise ignored.
type Mirror interface {
	CreateFile(dir, name string, data []byte) error
}

// mirrorRemover is implemented by mirrors that can drop a file once it
// leaves the project.
type mirrorRemover interface {
	RemoveFile(dir, name string) error
}

// Store is a synchronous string key-value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Notifier prints user visible status lines.
type Notifier interface {
	Print(msg string)
}

// revealer is implemented by editors that can scroll to a line.
type revealer interface {
	RevealLine(line int)
}

type Options struct {
	Editor   Editor
	Mirror   Mirror
	Store    Store
	Notifier Notifier

	DefaultName string
	SaveDelay   time.Duration
	MinQuery    int
	Now         func() time.Time
}

// FileInfo is one row of the project listing.
type FileInfo struct {
	Name      string `json:"name"`
	Script    bool   `json:"script"`
	Plaintext bool   `json:"plaintext"`
	Active    bool   `json:"active"`
	Size      int    `json:"size"`
}

// Entry is a file name with its authoritative content.
type Entry struct {
	Name string
	Data []byte
}

// Event is published after every change to the listing.
type Event struct {
	Op     string     `json:"op"`
	Active string     `json:"active"`
	Files  []FileInfo `json:"files"`
}

// Restore sources reported by LoadAutoSave.
const (
	RestoreProject = "project"
	RestoreLegacy  = "legacy"
	RestoreDefault = "default"
)

type Restore struct {
	Source  string `json:"source"`
	Files   int    `json:"files"`
	SavedAt string `json:"saved_at,omitempty"`
}

// System is the project registry. Scripts and other files live in two
// ordered buckets so iteration is always scripts first, each group in
// insertion order.
type System struct {
	mu   sync.Mutex
	opts Options

	scripts []*File
	others  []*File
	active  *File

	pending   bool
	debounced func(func())

	subs map[chan Event]struct{}
}

// New returns a system holding a single empty default script.
func New(opts Options) *System {
	if opts.DefaultName == "" || !IsScriptName(opts.DefaultName) {
		opts.DefaultName = DefaultName
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.MinQuery <= 0 {
		opts.MinQuery = DefaultMinQuery
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Editor == nil {
		opts.Editor = &memEditor{}
	}
	s := &System{
		opts:      opts,
		debounced: debounce.New(opts.SaveDelay),
		subs:      make(map[chan Event]struct{}),
	}
	s.activate(s.insertDefaultLocked())
	return s
}

// ---- listing ----

func (s *System) Files() []FileInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filesLocked()
}

func (s *System) filesLocked() []FileInfo {
	out := make([]FileInfo, 0, s.sizeLocked())
	for _, f := range s.allLocked() {
		out = append(out, FileInfo{
			Name:      f.Name(),
			Script:    f.IsScript(),
			Plaintext: f.IsPlaintext(),
			Active:    f.IsActive(),
			Size:      len(f.Snapshot()),
		})
	}
	return out
}

// Active returns the active filename, or "" when no file is bound.
func (s *System) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.Name()
}

func (s *System) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeLocked()
}

func (s *System) NumScripts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts)
}

// Entries returns every file, binary included, with its current content.
func (s *System) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.allLocked()
	out := make([]Entry, 0, len(all))
	for _, f := range all {
		out = append(out, Entry{Name: f.Name(), Data: append([]byte(nil), f.Snapshot()...)})
	}
	return out
}

// Content returns the current content of name.
func (s *System) Content(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.lookupLocked(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), f.Snapshot()...), nil
}

// ---- commands ----

// AddFile inserts a new file, mirrors it to the runtime and, when it is
// plaintext, makes it the active file.
func (s *System) AddFile(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.addLocked(name, data); err != nil {
		return err
	}
	s.persistLocked()
	s.publishLocked("add")
	return nil
}

// CreateFile adds an empty file the way the explorer's "new file" action
// does: a name without an extension becomes a script.
func (s *System) CreateFile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, err := s.checkNewLocked(name, true)
	if err != nil {
		return err
	}
	f := NewFile(name, nil)
	s.mirrorLocked(f)
	s.insertLocked(f)
	if f.IsScript() {
		s.activate(f)
	}
	s.persistLocked()
	s.publishLocked("create")
	return nil
}

// SetActiveFile binds name to the editor. Binary files and the already
// active file are left alone.
func (s *System) SetActiveFile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.lookupLocked(name)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if f == s.active || !f.IsPlaintext() {
		return nil
	}
	s.activate(f)
	s.scheduleSaveLocked()
	s.publishLocked("select")
	return nil
}

// Reveal activates name and scrolls the editor to line.
func (s *System) Reveal(name string, line int) error {
	if err := s.SetActiveFile(name); err != nil {
		return err
	}
	if r, ok := s.opts.Editor.(revealer); ok {
		r.RevealLine(line)
	}
	return nil
}

// UpdateActiveContent records an editor keystroke. The write to storage is
// debounced; every call restarts the window.
func (s *System) UpdateActiveContent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	s.active.SetContent(text)
	s.scheduleSaveLocked()
}

// RemoveFile deletes name. Removing the last script creates and activates
// a fresh default script; removing the active file activates the first
// remaining one.
func (s *System) RemoveFile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.lookupLocked(name)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	wasActive := f == s.active
	s.detachLocked(f)
	s.unmirrorLocked(f.Name())
	if wasActive {
		f.release()
		s.active = nil
	}

	switch {
	case len(s.scripts) == 0:
		s.activate(s.insertDefaultLocked())
	case wasActive:
		s.activate(s.firstPlaintextLocked())
	}
	s.persistLocked()
	s.publishLocked("remove")
	return nil
}

// RenameFile renames oldName. A rename onto the same name is a no-op.
func (s *System) RenameFile(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newName, err := util.ValidateFilename(newName)
	if err != nil {
		s.notify(err.Error())
		return err
	}
	if newName == oldName {
		return nil
	}
	f := s.lookupLocked(oldName)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if s.lookupLocked(newName) != nil {
		s.notify(strconv.Quote(newName) + " already exists")
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}

	s.detachLocked(f)
	s.unmirrorLocked(oldName)
	f.Rename(newName)
	s.mirrorLocked(f)
	s.insertLocked(f)
	if f == s.active {
		if f.IsPlaintext() {
			s.opts.Editor.SetFilename(newName)
		} else {
			f.Deactivate()
			s.active = nil
		}
	}
	s.healLocked()
	s.persistLocked()
	s.publishLocked("rename")
	return nil
}

// Clear drops every file and starts over with one empty default script.
func (s *System) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.activate(s.insertDefaultLocked())
	s.persistLocked()
	s.publishLocked("clear")
}

// LoadExample drops the untouched default script, if any, and adds the
// example in its place. A rejected name leaves the project as it was.
func (s *System) LoadExample(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blank := s.lookupLocked(s.opts.DefaultName)
	if blank != nil && len(blank.Snapshot()) != 0 {
		blank = nil
	}
	name, err := util.ValidateFilename(name)
	if err != nil {
		s.notify(err.Error())
		return err
	}
	// The example may reuse the blank default's name.
	if f := s.lookupLocked(name); f != nil && f != blank {
		s.notify(name + " already exists")
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	if blank != nil {
		s.detachLocked(blank)
		s.unmirrorLocked(blank.Name())
		if blank == s.active {
			blank.release()
			s.active = nil
		}
	}
	if _, err := s.addLocked(name, data); err != nil {
		return err
	}
	s.healLocked()
	s.persistLocked()
	s.publishLocked("example")
	return nil
}

// ---- persistence ----

// Save writes every plaintext file and the active filename to the store.
func (s *System) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Flush writes a pending debounced save immediately.
func (s *System) Flush() {
	s.debounced(func() {})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		s.persistLocked()
	}
}

func (s *System) autosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		s.persistLocked()
	}
}

func (s *System) scheduleSaveLocked() {
	s.pending = true
	s.debounced(s.autosave)
}

func (s *System) persistLocked() {
	if err := s.saveLocked(); err != nil {
		log.Errorf("save project: %v", err)
	}
}

func (s *System) saveLocked() error {
	s.pending = false
	if s.opts.Store == nil {
		return nil
	}
	b, err := json.Marshal(s.recordLocked())
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := s.opts.Store.Set(KeyProject, string(b)); err != nil {
		return fmt.Errorf("store %s: %w", KeyProject, err)
	}
	if err := s.opts.Store.Set(KeySaveTime, s.opts.Now().Format(SaveTimeLayout)); err != nil {
		return fmt.Errorf("store %s: %w", KeySaveTime, err)
	}
	return nil
}

func (s *System) recordLocked() Record {
	var rec Record
	for _, f := range s.allLocked() {
		if f.IsPlaintext() {
			rec.Files = append(rec.Files, RecordFile{Name: f.Name(), Text: string(f.Snapshot())})
		}
		if f.IsActive() {
			rec.ActiveFile = f.Name()
		}
	}
	return rec
}

// Load replaces the project with the stored record. It reports false, and
// leaves the project untouched, when there is no usable record.
func (s *System) Load() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loadLocked() {
		return false
	}
	s.publishLocked("load")
	return true
}

func (s *System) loadLocked() bool {
	if s.opts.Store == nil {
		return false
	}
	raw, ok, err := s.opts.Store.Get(KeyProject)
	if err != nil {
		log.Warnf("read %s: %v", KeyProject, err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	rec, err := ParseRecord(raw)
	if err != nil {
		log.Warnf("ignoring unreadable %s: %v", KeyProject, err)
		return false
	}

	var files []*File
	seen := make(map[string]bool)
	for _, rf := range rec.Files {
		name, err := util.ValidateFilename(rf.Name)
		if err != nil || seen[name] {
			log.Warnf("skipping stored file %q", rf.Name)
			continue
		}
		seen[name] = true
		files = append(files, NewFile(name, []byte(rf.Text)))
	}
	if len(files) == 0 {
		return false
	}

	s.clearLocked()
	for _, f := range files {
		s.mirrorLocked(f)
		s.insertLocked(f)
	}
	if f := s.lookupLocked(rec.ActiveFile); f != nil && f.IsPlaintext() {
		s.activate(f)
	} else if len(s.scripts) > 0 {
		s.activate(s.scripts[0])
	}
	s.healLocked()
	return true
}

// LoadAutoSave restores the project at startup: the multi-file record
// first, then the legacy single-file keys, then a fresh default.
func (s *System) LoadAutoSave() Restore {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedAt := s.getLocked(KeySaveTime)
	if s.loadLocked() {
		n := s.sizeLocked()
		s.notify(fmt.Sprintf("loaded autosave: %d %s (%s)", n, plural(n, "file"), savedAt))
		s.publishLocked("load")
		return Restore{Source: RestoreProject, Files: n, SavedAt: savedAt}
	}

	code := s.getLocked(KeyLegacyCode)
	name := s.getLocked(KeyLegacyFilename)
	if name == "" {
		name = s.opts.DefaultName
	}
	s.clearLocked()
	if code == "" {
		s.activate(s.insertDefaultLocked())
		s.publishLocked("load")
		return Restore{Source: RestoreDefault, Files: 1}
	}
	if _, err := s.addLocked(name, []byte(code)); err != nil {
		log.Warnf("legacy autosave %q: %v", name, err)
	}
	s.healLocked()
	s.notify(fmt.Sprintf("loaded autosave: %s (%s)", name, savedAt))
	s.persistLocked()
	s.publishLocked("load")
	return Restore{Source: RestoreLegacy, Files: s.sizeLocked(), SavedAt: savedAt}
}

func (s *System) getLocked(key string) string {
	if s.opts.Store == nil {
		return ""
	}
	v, _, err := s.opts.Store.Get(key)
	if err != nil {
		log.Warnf("read %s: %v", key, err)
		return ""
	}
	return v
}

// ---- subscriptions ----

// Subscribe returns a channel of listing changes. Slow readers miss events
// rather than block the system. cancel closes the channel.
func (s *System) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *System) publishLocked(op string) {
	if len(s.subs) == 0 {
		return
	}
	ev := Event{Op: op, Files: s.filesLocked()}
	if s.active != nil {
		ev.Active = s.active.Name()
	}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ---- internals ----

func (s *System) checkNewLocked(name string, defaultExt bool) (string, error) {
	name, err := util.ValidateFilename(name)
	if err != nil {
		s.notify(err.Error())
		return "", err
	}
	if defaultExt && !strings.Contains(name, ".") {
		name += ScriptExt
	}
	if s.lookupLocked(name) != nil {
		s.notify(name + " already exists")
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}
	return name, nil
}

func (s *System) addLocked(name string, data []byte) (*File, error) {
	name, err := s.checkNewLocked(name, false)
	if err != nil {
		return nil, err
	}
	f := NewFile(name, data)
	s.mirrorLocked(f)
	s.insertLocked(f)
	if f.IsPlaintext() {
		s.activate(f)
	}
	return f, nil
}

// activate moves the editor binding to f. The outgoing file is
// snapshotted first so at most one file is ever bound.
func (s *System) activate(f *File) {
	if f == nil || f == s.active || !f.IsPlaintext() {
		return
	}
	if s.active != nil {
		s.active.Deactivate()
	}
	s.active = f
	f.Activate(s.opts.Editor)
}

// healLocked restores the standing guarantees after a change that may
// have removed the last script or the active binding.
func (s *System) healLocked() {
	if len(s.scripts) == 0 {
		s.insertDefaultLocked()
	}
	if s.active == nil {
		s.activate(s.firstPlaintextLocked())
	}
}

func (s *System) insertDefaultLocked() *File {
	f := NewFile(s.opts.DefaultName, nil)
	s.mirrorLocked(f)
	s.insertLocked(f)
	return f
}

func (s *System) insertLocked(f *File) {
	if f.IsScript() {
		s.scripts = append(s.scripts, f)
	} else {
		s.others = append(s.others, f)
	}
}

func (s *System) detachLocked(f *File) {
	s.scripts = without(s.scripts, f)
	s.others = without(s.others, f)
}

func (s *System) clearLocked() {
	if s.active != nil {
		s.active.release()
		s.active = nil
	}
	for _, f := range s.allLocked() {
		s.unmirrorLocked(f.Name())
	}
	s.scripts = nil
	s.others = nil
}

func (s *System) mirrorLocked(f *File) {
	if s.opts.Mirror == nil {
		return
	}
	if err := s.opts.Mirror.CreateFile("", f.Name(), f.Data()); err != nil {
		log.Warnf("mirror %s: %v", f.Name(), err)
	}
}

func (s *System) unmirrorLocked(name string) {
	r, ok := s.opts.Mirror.(mirrorRemover)
	if !ok {
		return
	}
	if err := r.RemoveFile("", name); err != nil {
		log.Warnf("unmirror %s: %v", name, err)
	}
}

func (s *System) lookupLocked(name string) *File {
	for _, f := range s.allLocked() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (s *System) firstPlaintextLocked() *File {
	for _, f := range s.allLocked() {
		if f.IsPlaintext() {
			return f
		}
	}
	return nil
}

func (s *System) allLocked() []*File {
	out := make([]*File, 0, s.sizeLocked())
	out = append(out, s.scripts...)
	return append(out, s.others...)
}

func (s *System) sizeLocked() int {
	return len(s.scripts) + len(s.others)
}

func (s *System) notify(msg string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Print(msg)
	}
}

func without(files []*File, f *File) []*File {
	for i, g := range files {
		if g == f {
			return append(files[:i:i], files[i+1:]...)
		}
	}
	return files
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// memEditor stands in when no live editor is attached, e.g. for offline
// export.
type memEditor struct {
	name string
	text string
}

func (m *memEditor) Text() string            { return m.text }
func (m *memEditor) SetText(text string)     { m.text = text }
func (m *memEditor) SetFilename(name string) { m.name = name }
