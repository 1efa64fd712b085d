package clients

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Client is one browser connected to the viewer. gorilla/websocket allows a
// single concurrent writer, so writes go through mu.
type Client struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) write(msgType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(msgType, payload)
}

// Manager tracks browser connections keyed by client id.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]*Client)}
}

// Add registers conn under id and returns the connection it replaced, if any.
func (m *Manager) Add(id string, conn *websocket.Conn) (old *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok && c.conn != conn {
		old = c.conn
	}
	m.clients[id] = &Client{ID: id, conn: conn}
	return
}

// Remove drops id only while it still refers to conn.
func (m *Manager) Remove(id string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok && c.conn == conn {
		delete(m.clients, id)
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Broadcast sends payload as a text message to every client and returns
// how many writes failed. Failed clients stay registered until their read
// loop notices the broken connection.
func (m *Manager) Broadcast(payload []byte) (failed int) {
	m.mu.RLock()
	snapshot := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		snapshot = append(snapshot, c)
	}
	m.mu.RUnlock()

	for _, c := range snapshot {
		if err := c.write(websocket.TextMessage, payload); err != nil {
			failed++
		}
	}
	return failed
}
