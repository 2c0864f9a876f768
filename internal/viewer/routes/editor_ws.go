// internal/viewer/routes/editor_ws.go

package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/petervdpas/chuckide/internal/editor"
	"github.com/petervdpas/chuckide/internal/project"
)

const socketWriteTimeout = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 65536,
	// The IDE page may be served from a dev server on another port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var errUnknownMessage = errors.New("unknown message type")

// socketIn is a message from a connected editor.
type socketIn struct {
	Type string `json:"type"` // edit | select | reveal
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
	Line int    `json:"line,omitempty"`
}

type socketHello struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type socketProject struct {
	Type string `json:"type"`
	project.Event
}

type socketError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func registerEditorSocket(mux *http.ServeMux, d Deps) {
	// GET /ws/editor: keystrokes in, buffer updates and listings out
	mux.HandleFunc("/ws/editor", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("editor socket upgrade: %v", err)
			return
		}
		defer conn.Close()

		id := uuid.NewString()
		log.Debugf("editor socket %s connected", id)
		defer log.Debugf("editor socket %s closed", id)

		updates, cancelUpdates := d.Editor.Subscribe()
		defer cancelUpdates()
		events, cancelEvents := d.Project.Subscribe()
		defer cancelEvents()

		write := func(v any) error {
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
			return conn.WriteJSON(v)
		}

		l := listingOf(d.Project)
		for _, v := range []any{
			socketHello{Type: "hello", ID: id},
			socketProject{Type: "project", Event: project.Event{Op: "sync", Active: l.Active, Files: l.Files}},
			d.Editor.State(),
		} {
			if err := write(v); err != nil {
				return
			}
		}

		replies := make(chan socketError, 8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var in socketIn
				if err := conn.ReadJSON(&in); err != nil {
					return
				}
				if err := applySocketMsg(d, id, in); err != nil {
					select {
					case replies <- socketError{Type: "error", Error: err.Error()}:
					default:
					}
				}
			}
		}()

		for {
			var out any
			select {
			case <-r.Context().Done():
				return
			case <-done:
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				// The sender already shows its own keystrokes.
				if u.Kind == editor.KindText && u.Origin == id {
					continue
				}
				out = u
			case ev, ok := <-events:
				if !ok {
					return
				}
				out = socketProject{Type: "project", Event: ev}
			case e := <-replies:
				out = e
			}
			if err := write(out); err != nil {
				log.Debugf("editor socket %s write: %v", id, err)
				return
			}
		}
	})
}

func applySocketMsg(d Deps, id string, in socketIn) error {
	switch in.Type {
	case "edit":
		d.Editor.Edit(id, in.Text)
		return nil
	case "select":
		return d.Project.SetActiveFile(in.Name)
	case "reveal":
		return d.Project.Reveal(in.Name, in.Line)
	default:
		return errUnknownMessage
	}
}
