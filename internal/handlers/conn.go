// internal/handlers/conn.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// outBuffer is the number of queued outbound messages per connection before
// new ones are dropped.
const outBuffer = 64

// Connection is one client's websocket presence. Everything sent to the
// client goes through OutChan and is written by the connection's write pump.
type Connection struct {
	ID      uuid.UUID
	OutChan chan interface{}
	Cancel  func()

	log *logrus.Entry
}

// NewConnection returns a connection with a fresh id.
func NewConnection(logger *logrus.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		ID:      id,
		OutChan: make(chan interface{}, outBuffer),
		Cancel:  func() {},
		log:     logger.WithField("conn", id),
	}
}

// Write queues msg without blocking. A full queue drops the message.
func (c *Connection) Write(msg interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		c.log.Warnf("OutChan full, dropped %T", msg)
	}
}

// Close stops the connection's pumps. OutChan stays open so late writers
// never panic; the queue is simply abandoned.
func (c *Connection) Close() {
	c.Cancel()
}

// Hub tracks every open connection.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*Connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uuid.UUID]*Connection)}
}

func (h *Hub) Add(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Remove forgets a connection and closes it.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (h *Hub) Get(id uuid.UUID) (*Connection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	return c, ok
}

// SendTo queues msg on each listed connection that is still open.
func (h *Hub) SendTo(ids []uuid.UUID, msg interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range ids {
		if c, ok := h.conns[id]; ok {
			c.Write(msg)
		}
	}
}

// BroadcastAll queues msg on every open connection.
func (h *Hub) BroadcastAll(msg interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		c.Write(msg)
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
