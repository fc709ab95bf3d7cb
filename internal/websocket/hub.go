package websocket

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tradejournal/brokergate/internal/models"
)

// Hub maintains the set of active browser clients and fans quote and
// stream-status messages out to them
type Hub struct {
	// Registered clients
	mu          sync.Mutex
	connections map[*websocket.Conn]bool

	// Messages to be broadcast to all connected clients
	broadcast chan models.Message

	// Upgrader for HTTP connections to WebSocket
	upgrader websocket.Upgrader
}

// NewHub creates a new hub for managing WebSocket connections
func NewHub() *Hub {
	upgrader := websocket.Upgrader{
		// Allow all origins for WebSocket connections
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan models.Message, 256),
		upgrader:    upgrader,
	}
}

// Run starts listening for messages to broadcast
func (h *Hub) Run() {
	for {
		// Wait for a message to broadcast
		msg := <-h.broadcast

		// Send to all connected clients
		h.mu.Lock()
		for client := range h.connections {
			err := client.WriteJSON(msg)
			if err != nil {
				log.Printf("Error sending message to client: %v", err)
				client.Close()
				delete(h.connections, client)
			}
		}
		h.mu.Unlock()
	}
}

// HandleWebSocket upgrades an HTTP connection to WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// Register new client
	h.mu.Lock()
	h.connections[ws] = true
	h.mu.Unlock()

	// Read messages from the client (to keep the connection alive)
	go func() {
		defer ws.Close()
		for {
			_, _, err := ws.ReadMessage()
			if err != nil {
				h.mu.Lock()
				delete(h.connections, ws)
				h.mu.Unlock()
				break
			}
		}
	}()
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg models.Message) {
	h.broadcast <- msg
}

// BroadcastQuote fans a live quote out to all connected clients
func (h *Hub) BroadcastQuote(brokerID string, quote models.Quote) {
	h.Broadcast(models.Message{
		Type: "quote",
		Content: map[string]interface{}{
			"brokerId": brokerID,
			"quote":    quote,
		},
	})
}

// BroadcastStreamError notifies clients that a broker's stream went down
func (h *Hub) BroadcastStreamError(brokerID string, err error) {
	h.Broadcast(models.Message{
		Type: "stream_error",
		Content: map[string]interface{}{
			"brokerId": brokerID,
			"error":    err.Error(),
		},
	})
}
