// Package editor holds the server side copy of the browser editor's model.
// Websocket clients send keystrokes in and receive every change back out.
package editor

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("editor")

// Update kinds.
const (
	KindText     = "text"
	KindFilename = "filename"
	KindReveal   = "reveal"
)

type Update struct {
	Kind     string `json:"type"`
	Filename string `json:"filename"`
	Text     string `json:"text,omitempty"`
	Line     int    `json:"line,omitempty"`
	Version  uint64 `json:"version"`
	Origin   string `json:"origin,omitempty"`
}

// Buffer is the live editor model. Programmatic writes (SetText,
// SetFilename) come from the project and never call the change hook;
// Edit is a user keystroke and does.
type Buffer struct {
	mu       sync.Mutex
	filename string
	text     string
	version  uint64

	onChange func(text string)
	subs     map[chan Update]struct{}
}

func New() *Buffer {
	return &Buffer{subs: make(map[chan Update]struct{})}
}

func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Buffer) Filename() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filename
}

func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// State returns the whole buffer as a text update.
func (b *Buffer) State() Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Update{Kind: KindText, Filename: b.filename, Text: b.text, Version: b.version}
}

func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.version++
	b.publishLocked(Update{Kind: KindText, Filename: b.filename, Text: text, Version: b.version})
}

func (b *Buffer) SetFilename(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filename = name
	b.publishLocked(Update{Kind: KindFilename, Filename: name, Version: b.version})
}

// RevealLine asks connected editors to scroll to line (1-based).
func (b *Buffer) RevealLine(line int) {
	if line < 1 {
		line = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(Update{Kind: KindReveal, Filename: b.filename, Line: line, Version: b.version})
}

// OnChange installs the keystroke hook.
func (b *Buffer) OnChange(fn func(text string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Edit applies a user keystroke from origin (a client id, may be empty).
// The hook runs after the buffer lock is released so it may call back
// into the buffer.
func (b *Buffer) Edit(origin, text string) {
	b.mu.Lock()
	b.text = text
	b.version++
	b.publishLocked(Update{Kind: KindText, Filename: b.filename, Text: text, Version: b.version, Origin: origin})
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

// Subscribe returns a channel of updates. Slow subscribers lose updates
// instead of blocking writers.
func (b *Buffer) Subscribe() (ch chan Update, cancel func()) {
	ch = make(chan Update, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel = func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Buffer) publishLocked(u Update) {
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
			log.Debugf("dropping %s update v%d for slow subscriber", u.Kind, u.Version)
		}
	}
}
