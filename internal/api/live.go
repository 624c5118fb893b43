package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kdimtricp/cineck/internal/browse"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Messages a browser sends on /ws/browse.
const (
	msgQuery   = "query"
	msgPage    = "page"
	msgRefresh = "refresh"
)

type clientMessage struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// serverMessage carries a state snapshot and the results partial rendered
// from it, or an error about the last client message.
type serverMessage struct {
	Type  string        `json:"type"`
	State *browse.State `json:"state,omitempty"`
	HTML  string        `json:"html,omitempty"`
	Error string        `json:"error,omitempty"`
}

// BrowseSocketHandler runs one browse session for the lifetime of the socket.
// ?q= and ?page= seed the session with the key the page was rendered for.
func (app *App) BrowseSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[LIVE] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	opts := app.SessionOptions
	opts.Term = r.URL.Query().Get("q")
	if page, err := pageParam(r); err == nil {
		opts.Page = page
	}
	session := browse.NewSession(app.Catalog, opts)
	defer session.Close()
	log.Printf("[LIVE] Session %s started", session.ID)

	clientErrs := make(chan string, 8)
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		app.readClient(conn, session, clientErrs)
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-session.Updates():
			if !ok {
				return
			}
			if err := app.writeState(conn, st); err != nil {
				log.Printf("[LIVE] Session %s: write failed: %v", session.ID, err)
				return
			}

		case msg := <-clientErrs:
			if err := writeMessage(conn, serverMessage{Type: "error", Error: msg}); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-clientGone:
			log.Printf("[LIVE] Session %s closed by client", session.ID)
			return
		}
	}
}

func (app *App) readClient(conn *websocket.Conn, session *browse.Session, errs chan<- string) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[LIVE] Session %s: read failed: %v", session.ID, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			report(errs, "malformed message")
			continue
		}

		switch msg.Type {
		case msgQuery:
			err = session.SetQuery(msg.Query)
		case msgPage:
			err = session.SetPage(msg.Page)
		case msgRefresh:
			err = session.Refresh()
		default:
			report(errs, "unknown message type: "+msg.Type)
			continue
		}
		if err != nil {
			report(errs, err.Error())
		}
	}
}

// report never blocks the reader; a client flooding bad messages loses replies.
func report(errs chan<- string, msg string) {
	select {
	case errs <- msg:
	default:
	}
}

func (app *App) writeState(conn *websocket.Conn, st browse.State) error {
	html, err := renderPartial(app.pages, "results", resultsOfState(st))
	if err != nil {
		log.Printf("[LIVE] Rendering results failed: %v", err)
	}
	return writeMessage(conn, serverMessage{Type: "state", State: &st, HTML: html})
}

func writeMessage(conn *websocket.Conn, msg serverMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
