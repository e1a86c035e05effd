package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"
)

// ClientMessage is the JSON envelope received from clients.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is the JSON envelope sent to clients.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Encode marshals a server message envelope.
func Encode(msgType string, data any) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: msgType, Data: data})
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	SID    string
	RoomID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks every live connection by session id and routes messages to a
// room, a single client, or an explicit recipient list (team chat).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.SID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[sid]; ok {
		close(c.Send)
		delete(h.clients, sid)
	}
}

// CloseClient drops a client from the hub and force-closes its connection
// (used when the operator kicks a player).
func (h *Hub) CloseClient(sid, reason string) {
	h.mu.Lock()
	c, ok := h.clients[sid]
	if ok {
		close(c.Send)
		delete(h.clients, sid)
	}
	h.mu.Unlock()
	if ok && c.Conn != nil {
		c.Conn.Close(websocket.StatusNormalClosure, reason)
	}
}

// SetRoom records which room a connection joined, so room broadcasts reach it.
func (h *Hub) SetRoom(sid, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[sid]; ok {
		c.RoomID = roomID
	}
}

// BroadcastRoom sends a message to every client in the room. Non-blocking:
// drops for clients whose channel is full.
func (h *Hub) BroadcastRoom(roomID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.RoomID != roomID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// SendTo delivers a message to one client. Returns false if the sid has no
// live connection.
func (h *Hub) SendTo(sid string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[sid]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		log.Printf("[WSHub] Dropping message for %s: send buffer full\n", sid)
		return false
	}
}
