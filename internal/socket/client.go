// internal/socket/client.go
package socket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize int64 = 4096
)

// ClientMessage is a frame received from a client.
type ClientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

func NewClient(hub *Hub, userID string, conn *websocket.Conn, canJoin func(room string) bool) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		canJoin:  canJoin,
		lastPing: time.Now(),
	}
}

// ReadPump reads client frames until the connection fails.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logs.Logger.Warnf("[Client] WebSocket error for user %s: %v", c.UserID, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump writes queued frames and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Coalesce whatever is already queued into this frame.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastPing = time.Now()
	c.mu.Unlock()
}

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logs.Logger.Debugf("[Client] Bad frame from user %s: %v", c.UserID, err)
		return
	}

	switch msg.Action {
	case "join":
		if msg.Room == "" || c.canJoin == nil || !c.canJoin(msg.Room) {
			c.reply(MessageAck, map[string]interface{}{"action": "denied", "room": msg.Room})
			return
		}
		c.Hub.JoinRoom(c, msg.Room)
		c.reply(MessageAck, map[string]interface{}{"action": "joined", "room": msg.Room})

	case "leave":
		if msg.Room != "" && msg.Room != UserRoom(c.UserID) {
			c.Hub.LeaveRoom(c, msg.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "left", "room": msg.Room})
		}

	case "ping":
		c.touch()
		c.reply(MessagePong, map[string]interface{}{"time": time.Now().Unix()})

	case "pong":
		c.touch()

	default:
		logs.Logger.Debugf("[Client] Unknown action %q from user %s", msg.Action, c.UserID)
	}
}

func (c *Client) reply(msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		logs.Logger.Debugf("[Client] Send buffer full for user %s", c.UserID)
	}
}
