// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

// MessageType is the "type" of a frame sent to clients. Domain events use
// the event names published by the services.
type MessageType string

const (
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Message is the frame sent to clients.
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client is one websocket connection of a user.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan []byte
	Rooms  map[string]bool

	// canJoin reports whether the user may subscribe to room.
	canJoin func(room string) bool

	mu       sync.Mutex
	lastPing time.Time
}

// Hub tracks connected clients by user and by room.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	roomBroadcast chan *RoomMessage
	directMessage chan *DirectMessage

	mu sync.RWMutex
}

// RoomMessage is delivered to every client in Room.
type RoomMessage struct {
	Room    string
	Message []byte
}

// DirectMessage is delivered to every connection of UserID.
type DirectMessage struct {
	UserID  string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		directMessage: make(chan *DirectMessage, 256),
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	logs.Logger.Info("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			logs.Logger.Info("[Hub] WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	client.mu.Lock()
	for room := range client.Rooms {
		if h.roomClients[room] == nil {
			h.roomClients[room] = make(map[*Client]bool)
		}
		h.roomClients[room][client] = true
	}
	client.mu.Unlock()

	logs.Logger.Debugf("[Hub] Client registered: user=%s id=%s total=%d", client.UserID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	close(client.Send)
	logs.Logger.Debugf("[Hub] Client disconnected: user=%s id=%s total=%d", client.UserID, client.ID, len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}

// deliver queues message for client. A full buffer means the client is
// too slow and it gets dropped.
func (h *Hub) deliver(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		go func(c *Client) { h.unregister <- c }(client)
		return false
	}
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.roomClients[rm.Room] {
		if h.deliver(client, rm.Message) {
			sent++
		}
	}
	logs.Logger.Debugf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sent)
}

func (h *Hub) sendToUser(dm *DirectMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userClients[dm.UserID] {
		h.deliver(client, dm.Message)
	}
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// ============================================
// Room Management
// ============================================

// JoinRoom subscribes client to room.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if _, registered := h.clients[client]; !registered {
		return
	}
	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true
}

// LeaveRoom unsubscribes client from room.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// ============================================
// Sending
// ============================================

func encode(msgType MessageType, payload map[string]interface{}) ([]byte, bool) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		logs.Logger.Errorf("[Hub] Error marshaling %s message: %v", msgType, err)
		return nil, false
	}
	return data, true
}

// SendToUser delivers a message to every connection of userID. Delivery
// never blocks the caller.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.directMessage <- &DirectMessage{UserID: userID, Message: data}:
	default:
		logs.Logger.Warnf("[Hub] Dropped %s for user %s: queue full", msgType, userID)
	}
}

// SendToRoom delivers a message to every client subscribed to room.
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.roomBroadcast <- &RoomMessage{Room: room, Message: data}:
	default:
		logs.Logger.Warnf("[Hub] Dropped %s for room %s: queue full", msgType, room)
	}
}

// ============================================
// Queries
// ============================================

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userClients[userID]
	return ok
}

func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomClients[room])
}

func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
