package project

import "testing"

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.sys.AddFile("a.ck", []byte("SinOsc s => dac;\n  // TODO tune\n"))
	h.sys.AddFile("kick.wav", []byte("sinosc in binary"))
	h.sys.AddFile("notes.txt", []byte("sinosc notes"))
	// notes.txt is active; its live text wins over the stored copy.
	h.ed.text = "nothing here\n   SINOSC live"

	got := h.sys.Search("sinosc", 0)
	if len(got) != 2 {
		t.Fatalf("matches = %+v", got)
	}
	if got[0] != (Match{File: "a.ck", Line: 1, Text: "SinOsc s => dac;"}) {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1] != (Match{File: "notes.txt", Line: 2, Text: "SINOSC live"}) {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestSearchLimits(t *testing.T) {
	h := newHarness(t)
	h.sys.AddFile("a.ck", []byte("ab\nab\nab\nab"))
	if got := h.sys.Search("a", 0); got != nil {
		t.Fatalf("single character query matched %+v", got)
	}
	if got := h.sys.Search("ab", 3); len(got) != 3 {
		t.Fatalf("limit ignored: %d matches", len(got))
	}
}
