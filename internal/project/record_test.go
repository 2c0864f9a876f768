package project

import (
	"encoding/json"
	"testing"
)

func TestRecordKeepsFileOrder(t *testing.T) {
	rec := Record{
		ActiveFile: "b.ck",
		Files: []RecordFile{
			{Name: "z.ck", Text: "Z"},
			{Name: "b.ck", Text: "line \"one\"\nline two"},
			{Name: "a.txt", Text: ""},
		},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"activeFile":"b.ck","files":{"z.ck":"Z","b.ck":"line \"one\"\nline two","a.txt":""}}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}

	got, err := ParseRecord(string(b))
	if err != nil {
		t.Fatal(err)
	}
	if got.ActiveFile != "b.ck" || len(got.Files) != 3 {
		t.Fatalf("parsed %+v", got)
	}
	for i, f := range rec.Files {
		if got.Files[i] != f {
			t.Fatalf("file %d = %+v, want %+v", i, got.Files[i], f)
		}
	}
}

func TestParseRecordEdgeCases(t *testing.T) {
	t.Run("duplicate key keeps first position", func(t *testing.T) {
		rec, err := ParseRecord(`{"activeFile":"","files":{"a.ck":"1","b.ck":"2","a.ck":"3"}}`)
		if err != nil {
			t.Fatal(err)
		}
		if len(rec.Files) != 2 || rec.Files[0].Name != "a.ck" || rec.Files[0].Text != "3" {
			t.Fatalf("files = %+v", rec.Files)
		}
	})
	t.Run("missing files", func(t *testing.T) {
		rec, err := ParseRecord(`{"activeFile":"a.ck"}`)
		if err != nil {
			t.Fatal(err)
		}
		if len(rec.Files) != 0 {
			t.Fatalf("files = %+v", rec.Files)
		}
	})
	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{
			`nope`,
			`{"files":["a.ck"]}`,
			`{"files":{"a.ck":42}}`,
		} {
			if _, err := ParseRecord(in); err == nil {
				t.Fatalf("expected error for %s", in)
			}
		}
	})
}
