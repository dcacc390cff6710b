// Package notify pushes order events to connected admin dashboards over
// websockets.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	OrderCreated         = "order.created"
	OrderPaid            = "order.paid"
	OrderDeliveryUpdated = "order.delivery_updated"
	OrderDeleted         = "order.deleted"
)

const writeWait = 5 * time.Second

// Event is the JSON frame sent to every client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broadcaster is what order-producing code depends on.
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Handler upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("⚠️ websocket upgrade failed: %v", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Broadcast sends the event to every client; a client that cannot be
// written to is dropped.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("⚠️ encoding %s event: %v", eventType, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Clients reports how many dashboards are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Broadcast(string, interface{}) {}
