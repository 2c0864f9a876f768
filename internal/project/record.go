package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Storage keys.
const (
	KeyProject        = "projectFiles"
	KeySaveTime       = "editorCodeTime"
	KeyLegacyCode     = "editorCode"
	KeyLegacyFilename = "editorFilename"
)

// SaveTimeLayout is the human readable layout written under KeySaveTime.
const SaveTimeLayout = "1/2/2006, 3:04:05 PM"

// Record is the persisted project. Files keep project order, so the JSON
// object is written and read key by key instead of through a map.
type Record struct {
	ActiveFile string
	Files      []RecordFile
}

type RecordFile struct {
	Name string
	Text string
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	active, err := json.Marshal(r.ActiveFile)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"activeFile":`)
	buf.Write(active)
	buf.WriteString(`,"files":{`)
	for i, f := range r.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ActiveFile string          `json:"activeFile"`
		Files      json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ActiveFile = raw.ActiveFile
	r.Files = nil
	if len(raw.Files) == 0 || string(raw.Files) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Files))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("files: expected object")
	}
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("files: unexpected key %v", tok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("files[%q]: %w", name, err)
		}
		// A repeated key keeps its first position and its last value.
		if i, dup := pos[name]; dup {
			r.Files[i].Text = text
			continue
		}
		pos[name] = len(r.Files)
		r.Files = append(r.Files, RecordFile{Name: name, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ParseRecord decodes a stored record.
func ParseRecord(s string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
