package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// ClientMessage is the envelope clients send: register, joinProject or
// leaveProject.
type ClientMessage struct {
	Type      string `json:"type"`
	UserID    uint   `json:"user_id"`
	ProjectID uint   `json:"project_id"`
}

// Client is one live websocket connection owned by an authenticated user.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID     uint
	registered bool
	rooms      map[uint]bool // guarded by hub.mu
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		rooms:  make(map[uint]bool),
	}
}

// deliver queues a message without blocking; callers hold the hub lock.
// A full buffer drops the message, never stalls a mutation handler.
func (c *Client) deliver(message []byte) {
	select {
	case c.send <- message:
	default:
	}
}

// ReadPump consumes client messages until the connection closes, then
// removes the client from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", c.userID, err)
			}
			break
		}

		var message ClientMessage
		if err := json.Unmarshal(payload, &message); err != nil {
			log.Printf("Malformed websocket message from user %d: %v", c.userID, err)
			continue
		}

		// The user identity comes from the authenticated upgrade, so the
		// register message only flips the index on; its user_id field is
		// not trusted.
		switch message.Type {
		case "register":
			c.hub.Register(c)
		case "joinProject":
			c.hub.JoinRoom(c, message.ProjectID)
		case "leaveProject":
			c.hub.LeaveRoom(c, message.ProjectID)
		default:
			log.Printf("Unknown websocket message type %q from user %d", message.Type, c.userID)
		}
	}
}

// WritePump flushes queued messages and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
