package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per client id. One client may hold
// several connections (e.g. two tabs on the same device).
type Hub struct {
	clients map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
}

// Connection represents a WebSocket connection
type Connection struct {
	ClientID string
	Email    string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message for every connection of one client
type BroadcastMessage struct {
	ClientID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 16),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.clients[conn.ClientID] == nil {
				h.clients[conn.ClientID] = make(map[*Connection]struct{})
			}
			h.clients[conn.ClientID][conn] = struct{}{}
			h.mu.Unlock()
			log.Printf("Client %s connected (%s)", conn.ClientID, conn.Email)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[conn.ClientID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.clients, conn.ClientID)
					}
					log.Printf("Client %s disconnected", conn.ClientID)
				}
			}
			h.mu.Unlock()

		case clientID := <-h.disconnect:
			h.mu.Lock()
			for conn := range h.clients[clientID] {
				close(conn.Send)
			}
			delete(h.clients, clientID)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.clients[msg.ClientID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToClient sends a message to every connection of a client
// (implements service.Broadcaster)
func (h *Hub) BroadcastToClient(clientID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", msgType, err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		ClientID: clientID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectClient closes every connection of a client (implements
// service.Broadcaster)
func (h *Hub) DisconnectClient(clientID string) {
	h.disconnect <- clientID
}

// Connections returns the number of open connections for a client
func (h *Hub) Connections(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID])
}
