package editor

import (
	"testing"
	"time"
)

func TestProgrammaticWritesSkipHook(t *testing.T) {
	b := New()
	calls := 0
	b.OnChange(func(string) { calls++ })

	b.SetFilename("main.ck")
	b.SetText("SinOsc s => dac;")
	if calls != 0 {
		t.Fatalf("hook fired %d times for programmatic writes", calls)
	}
	if b.Text() != "SinOsc s => dac;" || b.Filename() != "main.ck" {
		t.Fatalf("buffer = %q %q", b.Filename(), b.Text())
	}

	var got string
	b.OnChange(func(text string) { got = text })
	b.Edit("c1", "SinOsc s => dac; 1::second => now;")
	if got != "SinOsc s => dac; 1::second => now;" {
		t.Fatalf("hook got %q", got)
	}
	if b.Version() != 2 {
		t.Fatalf("version = %d", b.Version())
	}
}

func TestHookMayReadBuffer(t *testing.T) {
	b := New()
	done := make(chan string, 1)
	b.OnChange(func(string) { done <- b.Text() })
	b.Edit("", "x")
	select {
	case v := <-done:
		if v != "x" {
			t.Fatalf("hook read %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("hook deadlocked")
	}
}

func TestSubscribeFanOut(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.SetFilename("a.ck")
	b.SetText("A")
	b.RevealLine(0)

	want := []Update{
		{Kind: KindFilename, Filename: "a.ck"},
		{Kind: KindText, Filename: "a.ck", Text: "A", Version: 1},
		{Kind: KindReveal, Filename: "a.ck", Line: 1, Version: 1},
	}
	for i, w := range want {
		select {
		case u := <-ch:
			if u != w {
				t.Fatalf("update %d = %+v, want %+v", i, u, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("update %d missing", i)
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()
	for i := 0; i < 500; i++ {
		b.SetText("x")
	}
	if b.Version() != 500 {
		t.Fatalf("version = %d", b.Version())
	}
}
