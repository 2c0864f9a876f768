package util

import (
	"path/filepath"
	"testing"
)

func TestRingBufferOverwritesOldest(t *testing.T) {
	r := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.Snapshot()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}
}

func TestRingBufferTailAndReset(t *testing.T) {
	r := NewRingBuffer[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		r.Push(s)
	}
	tail := r.Tail(2)
	if len(tail) != 2 || tail[0] != "d" || tail[1] != "e" {
		t.Fatalf("unexpected tail %v", tail)
	}
	if got := r.Tail(10); len(got) != 4 || got[0] != "b" {
		t.Fatalf("tail larger than count should clamp, got %v", got)
	}
	r.Reset()
	if r.Len() != 0 || len(r.Snapshot()) != 0 {
		t.Fatalf("expected empty buffer after reset")
	}
	r.Push("x")
	if s := r.Snapshot(); len(s) != 1 || s[0] != "x" {
		t.Fatalf("unexpected snapshot after reset: %v", s)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/base", "data"); got != filepath.Join("/base", "data") {
		t.Fatalf("relative join failed: %s", got)
	}
	if got := ResolvePath("/base", "/abs/dir/"); got != filepath.Clean("/abs/dir") {
		t.Fatalf("absolute path should win: %s", got)
	}
}

func TestValidateFilename(t *testing.T) {
	if name, err := ValidateFilename("  main.ck "); err != nil || name != "main.ck" {
		t.Fatalf("expected trimmed name, got %q, %v", name, err)
	}
	for _, bad := range []string{"", "   ", "a/b.ck", `a\b.ck`, "..", "."} {
		if _, err := ValidateFilename(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
