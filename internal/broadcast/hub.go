package broadcast

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"startup-fund/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	// a client is dropped after this many consecutive failed sends
	maxSendFailures = 3
)

// Hub owns the set of connected WebSocket clients and fans the projected
// snapshot out to all of them on every ledger mutation. A send failure on
// one client never affects delivery to the others.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn

	mu       sync.Mutex // serializes writes to the conn
	failures int
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request, sends the current snapshot immediately, and
// registers the connection for future broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial *models.GameStateSnapshot) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return err
	}

	c := &client{conn: conn}

	if initial != nil {
		payload, err := json.Marshal(initial)
		if err == nil {
			if err := c.send(payload); err != nil {
				conn.Close()
				return err
			}
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("Client connected (%d connected)", count)
	go h.readLoop(c)
	return nil
}

// Publish pushes a snapshot to every connected client. The payload is
// marshalled once; the client list is snapshotted before iterating so
// concurrent connect/disconnect cannot corrupt the fan-out.
func (h *Hub) Publish(snapshot *models.GameStateSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Error marshalling snapshot: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(payload); err != nil {
			if c.failureCount() >= maxSendFailures {
				log.Printf("Dropping client after %d failed sends: %v", maxSendFailures, err)
				h.remove(c)
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// readLoop drains client frames; clients send nothing meaningful, the read
// is only how we learn the connection closed.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
	if present {
		log.Printf("Client disconnected (%d connected)", h.ClientCount())
	}
}

func (c *client) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.TextMessage, payload)
	if err != nil {
		c.failures++
	} else {
		c.failures = 0
	}
	return err
}

func (c *client) failureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}
