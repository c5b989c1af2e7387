package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Server -> client event names.
const (
	EventTaskCreated        = "taskCreated"
	EventTaskUpdated        = "taskUpdated"
	EventTaskDeleted        = "taskDeleted"
	EventMemberRoleUpdated  = "memberRoleUpdated"
	EventMemberRemoved      = "memberRemoved"
	EventProjectDeleted     = "projectDeleted"
	EventNewInvitation      = "newInvitation"
	EventRemovedFromProject = "removedFromProject"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub is the session registry for live websocket clients. It tracks every
// connected client, an index from user ID to that user's clients (populated
// by the "register" message), and per-project rooms that clients join and
// leave explicitly. All delivery is best-effort: a slow client drops
// messages instead of blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	users   map[uint]map[*Client]bool
	rooms   map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		users:   make(map[uint]map[*Client]bool),
		rooms:   make(map[uint]map[*Client]bool),
	}
}

// Add tracks a newly connected client.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
}

// Remove forgets a client entirely: connection set, user index and every
// room it joined. Called once from the read pump when the connection ends.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	delete(h.clients, c)

	if c.registered {
		if clients, exists := h.users[c.userID]; exists {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.users, c.userID)
			}
		}
	}

	for projectID := range c.rooms {
		if clients, exists := h.rooms[projectID]; exists {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, projectID)
			}
		}
	}

	close(c.send)
}

// Register adds the client to the user index so user-targeted events
// (invitations, removals) can reach it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]bool)
	}
	h.users[c.userID][c] = true
	c.registered = true
}

// JoinRoom subscribes the client to a project's room.
func (h *Hub) JoinRoom(c *Client, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	if h.rooms[projectID] == nil {
		h.rooms[projectID] = make(map[*Client]bool)
	}
	h.rooms[projectID][c] = true
	c.rooms[projectID] = true
}

// LeaveRoom unsubscribes the client from a project's room.
func (h *Hub) LeaveRoom(c *Client, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(c.rooms, projectID)

	if clients, exists := h.rooms[projectID]; exists {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// Broadcast sends an event to every connected client. Task events use this
// unscoped fan-out; clients filter by project ID.
func (h *Hub) Broadcast(event string, data any) {
	message, err := marshal(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		c.deliver(message)
	}
}

// BroadcastRoom sends an event to every client subscribed to a project.
func (h *Hub) BroadcastRoom(projectID uint, event string, data any) {
	message, err := marshal(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[projectID] {
		c.deliver(message)
	}
}

// NotifyUser sends an event to every registered client of one user,
// independent of room membership.
func (h *Hub) NotifyUser(userID uint, event string, data any) {
	message, err := marshal(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.users[userID] {
		c.deliver(message)
	}
}

func marshal(event string, data any) ([]byte, error) {
	message, err := json.Marshal(envelope{Type: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return nil, err
	}
	return message, nil
}
