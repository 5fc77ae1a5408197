// Package admin is the read-only operations surface from spec.md §1/§6:
// a websocket feed of scheduler/matcher events for a live dashboard. It
// is NOT a conversation transport and carries no inbound matcher.Input —
// the core never imports this package, only emits into it via Hub.Publish.
package admin

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/shopmindai/voicematch/internal/matchstate"
)

// Event is one line of the live feed. voicematchd serve publishes one
// Event per outbound matcher message, with Kind set to the message kind.
type Event struct {
	Kind      string         `json:"kind"`
	Uid       matchstate.Uid `json:"uid,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Hub fans Published events out to every connected dashboard client,
// grounded on the teacher's websocket_handler.go Hub (register/
// unregister/broadcast channels) with the inbound-message half removed:
// this hub only ever writes.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan Event

	log logrus.FieldLogger
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub builds a Hub; call Run in its own goroutine before Publish-ing.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 256),
		log:        log,
	}
}

// Run drains register/unregister/broadcast until done is closed. Intended
// to be started once, alongside the scheduler driver.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// slow client, drop the event rather than block the feed
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish enqueues ev for broadcast; it never blocks the caller for long
// since the broadcast channel is buffered and Run drains it continuously.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		if h.log != nil {
			h.log.Warn("admin: broadcast channel full, dropping event")
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ServeWS upgrades the connection and streams Events until the client
// disconnects. There is no read side beyond detecting close: this is a
// one-way operations feed, matching spec.md §1's "never a conversation
// transport".
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.WithError(err).Warn("admin: websocket upgrade failed")
		}
		return
	}

	cl := &client{conn: conn, send: make(chan Event, 32)}
	h.register <- cl
	go h.writePump(cl)
	go h.readPump(cl)
}

// readPump's only job is to notice the client went away; the dashboard
// never sends anything meaningful upstream.
func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister <- cl
		cl.conn.Close()
	}()
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
