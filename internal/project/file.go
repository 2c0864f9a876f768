package project

import (
	"strings"
	"unicode/utf8"
)

// ScriptExt marks files the runtime can execute.
const ScriptExt = ".ck"

// plaintextExts lists the extensions the editor can open as text.
var plaintextExts = map[string]bool{
	"ck": true, "txt": true, "csv": true, "json": true,
	"xml": true, "html": true, "js": true,
}

// IsScriptName reports whether name carries the script extension.
func IsScriptName(name string) bool {
	return strings.HasSuffix(name, ScriptExt)
}

// IsPlaintextName reports whether name has an extension the editor can open.
// Names without a dot are treated as binary.
func IsPlaintextName(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return plaintextExts[name[i+1:]]
}

// Editor is the live editor buffer a single file can be bound to.
type Editor interface {
	Text() string
	SetText(text string)
	SetFilename(name string)
}

// fileState says where a file's authoritative content lives.
type fileState interface {
	stored() []byte
}

// detached: the file owns its content.
type detached struct {
	data []byte
}

func (d detached) stored() []byte { return d.data }

// bound: the editor owns the content. cache follows content-changed
// events so persistence can read it without querying the editor.
type bound struct {
	ed    Editor
	cache string
}

func (b bound) stored() []byte { return []byte(b.cache) }

// File is one project file.
type File struct {
	name   string
	script bool
	plain  bool
	state  fileState
}

// NewFile builds a detached file and classifies it by extension.
func NewFile(name string, data []byte) *File {
	f := &File{state: detached{data: data}}
	f.classify(name)
	return f
}

func (f *File) classify(name string) {
	f.name = name
	f.script = IsScriptName(name)
	f.plain = IsPlaintextName(name)
	if d, ok := f.state.(detached); ok && f.plain && !utf8.Valid(d.data) {
		f.state = detached{data: validText(d.data)}
	}
}

// validText replaces every byte that is not part of a UTF-8 sequence with
// U+FFFD, the way the editor would show it. Plaintext content then
// survives a save unchanged.
func validText(b []byte) []byte {
	out := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r == utf8.RuneError && n == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
		} else {
			out = append(out, b[:n]...)
		}
		b = b[n:]
	}
	return out
}

// Activate pushes the content into ed and binds the file to it. Binary
// files and files that are already bound are left alone.
func (f *File) Activate(ed Editor) {
	if f.IsActive() || !f.plain || ed == nil {
		return
	}
	text := string(f.state.stored())
	ed.SetFilename(f.name)
	ed.SetText(text)
	f.state = bound{ed: ed, cache: text}
}

// Deactivate pulls the editor text back into the file and unbinds it.
func (f *File) Deactivate() {
	b, ok := f.state.(bound)
	if !ok {
		return
	}
	f.state = detached{data: []byte(b.ed.Text())}
}

// release unbinds without reading the editor; used when the file is
// being dropped and its text no longer matters.
func (f *File) release() {
	if b, ok := f.state.(bound); ok {
		f.state = detached{data: []byte(b.cache)}
	}
}

// SetContent records a live edit.
func (f *File) SetContent(text string) {
	switch s := f.state.(type) {
	case bound:
		s.cache = text
		f.state = s
	default:
		f.state = detached{data: []byte(text)}
	}
}

// Rename changes the filename and reclassifies the file.
func (f *File) Rename(name string) {
	f.classify(name)
}

func (f *File) Name() string      { return f.name }
func (f *File) IsScript() bool    { return f.script }
func (f *File) IsPlaintext() bool { return f.plain }

// IsActive reports whether the file is bound to the editor.
func (f *File) IsActive() bool {
	_, ok := f.state.(bound)
	return ok
}

// Data returns the stored content. For an active file this is the last
// content-changed value, which may trail the editor.
func (f *File) Data() []byte {
	return f.state.stored()
}

// Snapshot returns the authoritative content: the editor text for an
// active file, the stored bytes otherwise.
func (f *File) Snapshot() []byte {
	if b, ok := f.state.(bound); ok {
		return []byte(b.ed.Text())
	}
	return f.state.stored()
}
