// internal/console/console.go
package console

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/petervdpas/chuckide/internal/util"
)

type Entry struct {
	TS  time.Time `json:"ts"`
	Msg string    `json:"msg"`
}

// Console is the user facing message sink. It keeps the last lines in a
// ring and fans every new line out to subscribers.
type Console struct {
	mu      sync.Mutex
	entries *util.RingBuffer[Entry]

	subs map[chan Entry]struct{}

	partial bytes.Buffer
	now     func() time.Time
}

func New(max int) *Console {
	if max <= 0 {
		max = 500
	}
	return &Console{
		entries: util.NewRingBuffer[Entry](max),
		subs:    make(map[chan Entry]struct{}),
		now:     time.Now,
	}
}

// Print records one message.
func (c *Console) Print(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(msg)
}

// Write implements io.Writer; runtime output arrives here and is split
// into lines.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.partial.Write(p)

	for {
		data := c.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i == -1 {
			break
		}

		line := string(data[:i])
		c.partial.Next(i + 1)

		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.emitLocked(line)
	}

	return len(p), nil
}

func (c *Console) emitLocked(msg string) {
	e := Entry{TS: c.now(), Msg: msg}
	c.entries.Push(e)
	for ch := range c.subs {
		select {
		case ch <- e:
		default:
			// drop on slow subscriber
		}
	}
}

func (c *Console) Snapshot() []Entry {
	return c.entries.Snapshot()
}

// Clear empties the ring.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Reset()
	c.partial.Reset()
}

func (c *Console) Subscribe() (ch chan Entry, cancel func()) {
	ch = make(chan Entry, 64)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	cancel = func() {
		c.mu.Lock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// GET /api/console[?n=50]
func (c *Console) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries := c.Snapshot()
	if n, err := strconv.Atoi(r.URL.Query().Get("n")); err == nil && n > 0 {
		entries = c.entries.Tail(n)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(entries)
}

// GET /api/console/stream  (Server-Sent Events) - tail only
func (c *Console) ServeSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := c.Subscribe()
	defer cancel()
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, e)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, e Entry) {
	b, _ := json.Marshal(e)
	_, _ = w.Write([]byte("event: message\n"))
	_, _ = w.Write([]byte("data: " + string(b) + "\n\n"))
}
