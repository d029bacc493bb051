// Package events broadcasts step state transitions to websocket
// subscribers as JSON frames. It is a machine-readable progress feed, not
// a presentation layer.
package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reweave/internal/types"
)

// Event is one step transition within a run.
type Event struct {
	RunID   string     `json:"run_id"`
	StepID  string     `json:"step_id,omitempty"`
	State   string     `json:"state"`
	Role    types.Role `json:"role,omitempty"`
	Attempt int        `json:"attempt,omitempty"`
	Error   string     `json:"error,omitempty"`
	At      time.Time  `json:"at"`
}

const (
	writeWait = 10 * time.Second
	sendDepth = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Hub fans events out to connected subscribers. Slow subscribers are
// dropped rather than allowed to stall the run.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish sends ev to every subscriber. It never blocks the caller.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- payload:
		default:
			delete(h.subs, s)
			close(s.send)
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade: %v", err)
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, sendDepth)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.writeLoop()
	// Discard inbound frames; the feed is one-way. Read errors mean the
	// client disconnected.
	go func() {
		defer h.drop(s)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
	_ = s.conn.Close()
}

func (s *subscriber) writeLoop() {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
}
