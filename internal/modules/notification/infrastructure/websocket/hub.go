package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

type UnicastMessage struct {
	UserID  uuid.UUID
	Message []byte
}

// Hub maintains the set of connected device channels and unicasts alert
// payloads to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Unicast messages
	unicast chan UnicastMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once

	// Connection counts per user, readable outside the run loop.
	mu        sync.RWMutex
	connected map[uuid.UUID]int
}

func NewHub() *Hub {
	return &Hub{
		unicast:    make(chan UnicastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		stop:       make(chan struct{}),
		connected:  make(map[uuid.UUID]int),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("[WebSocket Hub] Client registered (User: %s)", client.userID)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.addConnection(client.userID, -1)
				log.Printf("[WebSocket Hub] Client unregistered (User: %s)", client.userID)
			}
		case msg := <-h.unicast:
			for client := range h.clients {
				if client.userID == msg.UserID {
					select {
					case client.send <- msg.Message:
					default:
						close(client.send)
						delete(h.clients, client)
						h.addConnection(client.userID, -1)
					}
				}
			}
		case <-h.stop:
			log.Println("[WebSocket Hub] Stopping hub")
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.addConnection(client.userID, -1)
			}
			return
		}
	}
}

// Register adds a device channel. The connection count is bumped before
// the run loop picks the client up, so IsConnected reports true the moment
// this returns and a sweep racing the registration cannot miss the device.
func (h *Hub) Register(c *Client) {
	h.addConnection(c.userID, 1)
	select {
	case h.register <- c:
	case <-h.stop:
		h.addConnection(c.userID, -1)
	}
}

func (h *Hub) addConnection(userID uuid.UUID, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected[userID] += delta
	if h.connected[userID] <= 0 {
		delete(h.connected, userID)
	}
}

// IsConnected reports whether the user has at least one open device channel.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected[userID] > 0
}

// SendToUser unicasts a message to every connection the user holds.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
