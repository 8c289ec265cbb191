package mock

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smartstocks/pvp-tui/internal/client"
)

type frame struct {
	Type      client.MessageType `json:"type"`
	Data      any                `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// peer owns one WebSocket connection. All writes go through writePump.
type peer struct {
	conn *websocket.Conn
	out  chan []byte

	once sync.Once
	done chan struct{}
}

func newPeer(conn *websocket.Conn) *peer {
	p := &peer{
		conn: conn,
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go p.writePump()
	return p
}

func (p *peer) writePump() {
	defer p.conn.Close()
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.out:
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (p *peer) send(t client.MessageType, data any, now time.Time) {
	raw, err := json.Marshal(frame{Type: t, Data: data, Timestamp: now})
	if err != nil {
		return
	}
	select {
	case p.out <- raw:
	case <-p.done:
	default:
		// Slow reader, drop the frame.
	}
}

func (p *peer) close() {
	p.once.Do(func() { close(p.done) })
}
