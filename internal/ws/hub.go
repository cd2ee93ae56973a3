package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"campus-chat/internal/observability"
)

// Outbound event names that are not chat messages.
const (
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventJoined      = "joinedRoom"
	EventLeft        = "leftRoom"
	EventError       = "error"
)

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub maintains rooms of connected clients. Rooms are keyed by surface id.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	log     *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		log:     log.Named("hub"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops the client from every room and closes its outbound queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.removeLocked(room, c)
	}
	h.mu.Unlock()
	c.closeSend()
}

func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, c)
}

// InRoom reports whether c is currently joined to room.
func (h *Hub) InRoom(room string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish pushes an event to every client joined to room.
func (h *Hub) Publish(room, event string, payload any) {
	h.PublishExcept(room, event, payload, nil)
}

// PublishExcept is Publish without echoing to the origin client.
func (h *Hub) PublishExcept(room, event string, payload any, except *Client) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	h.deliver(targets, frame)
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, frame)
}

// CloseRoom removes every client from room. Connections stay open.
func (h *Hub) CloseRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		delete(c.rooms, room)
	}
	delete(h.rooms, room)
}

// LeaveUser removes every connection owned by userID from room.
func (h *Hub) LeaveUser(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		if c.info.UserID == userID {
			h.removeLocked(room, c)
		}
	}
}

// SendTo pushes an event to a single client.
func (h *Hub) SendTo(c *Client, event string, payload any) {
	if frame, ok := h.encode(event, payload); ok {
		h.deliver([]*Client{c}, frame)
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		h.log.Error("encode ws frame", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return frame, true
}

// deliver never blocks. A client that cannot keep up is disconnected.
func (h *Hub) deliver(targets []*Client, frame []byte) {
	for _, c := range targets {
		if !c.enqueue(frame) {
			observability.IncWSDropped()
			h.log.Warn("ws client too slow, dropping",
				zap.String("conn_id", c.info.ConnID),
				zap.String("user_id", c.info.UserID),
			)
			h.Unregister(c)
		}
	}
}

func (h *Hub) removeLocked(room string, c *Client) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
