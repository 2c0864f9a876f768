package app

import (
	"net"
	"testing"
	"time"
)

func TestNormalizeLocalViewer(t *testing.T) {
	cases := []struct {
		in, listen, url string
	}{
		{":8325", "127.0.0.1:8325", "http://127.0.0.1:8325"},
		{"0.0.0.0:9000", "127.0.0.1:9000", "http://127.0.0.1:9000"},
		{" 127.0.0.1:7000 ", "127.0.0.1:7000", "http://127.0.0.1:7000"},
	}
	for _, c := range cases {
		listen, url, tcp := NormalizeLocalViewer(c.in)
		if listen != c.listen || url != c.url || tcp != c.listen {
			t.Errorf("NormalizeLocalViewer(%q) = %q %q %q", c.in, listen, url, tcp)
		}
	}
}

func TestWaitTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if err := WaitTCP(ln.Addr().String(), time.Second); err != nil {
		t.Fatalf("WaitTCP: %v", err)
	}

	addr := ln.Addr().String()
	ln.Close()
	if err := WaitTCP(addr, 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout on closed port")
	}
}
