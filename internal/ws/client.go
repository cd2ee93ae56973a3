package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"campus-chat/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// RoomAuthorizer re-checks surface access when a client joins a room.
type RoomAuthorizer interface {
	AuthorizeRoom(ctx context.Context, kind string, surfaceID uuid.UUID, userID string) error
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type typingPayload struct {
	Room   string `json:"room"`
	UserID string `json:"user_id"`
}

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// Client is one authenticated websocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	info  ConnInfo
	authz RoomAuthorizer
	log   *zap.Logger

	// rooms is guarded by hub.mu.
	rooms map[string]struct{}

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, info ConnInfo, authz RoomAuthorizer, log *zap.Logger) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		info:  info,
		authz: authz,
		log:   log.With(zap.String("conn_id", info.ConnID), zap.String("user_id", info.UserID)),
		rooms: make(map[string]struct{}),
	}
}

// enqueue reports false when the outbound buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump blocks until the connection fails or is closed. It returns the close reason.
func (c *Client) readPump(ctx context.Context) string {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws read failed", zap.Error(err))
				publishLifecycle(ctx, c.info, "ws_error", err.Error())
			}
			return err.Error()
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError("", "malformed frame")
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, msg inbound) {
	switch msg.Event {
	case "joinLounge":
		var req struct {
			SurfaceID string `json:"surface_id"`
		}
		if c.decode(msg, &req) {
			c.joinSurface(ctx, msg.Event, models.SurfaceLounge, req.SurfaceID)
		}
	case "joinPrivateChat":
		var req struct {
			MatchID string `json:"match_id"`
		}
		if c.decode(msg, &req) {
			c.joinSurface(ctx, msg.Event, models.SurfacePrivate, req.MatchID)
		}
	case "leaveRoom":
		var req roomPayload
		if c.decode(msg, &req) {
			c.hub.Leave(req.Room, c)
			c.hub.SendTo(c, EventLeft, req)
		}
	case "registerUser":
		var req struct {
			UserID string `json:"user_id"`
		}
		if !c.decode(msg, &req) {
			return
		}
		if req.UserID != c.info.UserID {
			c.replyError(msg.Event, "cannot register as another user")
			return
		}
		room := models.UserRoom(c.info.UserID)
		c.hub.Join(room, c)
		c.hub.SendTo(c, EventJoined, roomPayload{Room: room})
	case EventTyping, EventStopTyping:
		var req roomPayload
		if !c.decode(msg, &req) {
			return
		}
		if !c.hub.InRoom(req.Room, c) {
			c.replyError(msg.Event, "not joined to room")
			return
		}
		c.hub.PublishExcept(req.Room, msg.Event, typingPayload{Room: req.Room, UserID: c.info.UserID}, c)
	default:
		c.replyError(msg.Event, "unknown event")
	}
}

func (c *Client) joinSurface(ctx context.Context, event string, kind models.SurfaceKind, rawID string) {
	surfaceID, err := uuid.Parse(rawID)
	if err != nil {
		c.replyError(event, "invalid surface id")
		return
	}
	if err := c.authz.AuthorizeRoom(ctx, string(kind), surfaceID, c.info.UserID); err != nil {
		c.log.Info("room join denied", zap.String("kind", string(kind)), zap.Stringer("surface_id", surfaceID), zap.Error(err))
		c.replyError(event, "access denied")
		return
	}
	room := surfaceID.String()
	c.hub.Join(room, c)
	c.hub.SendTo(c, EventJoined, roomPayload{Room: room})
}

func (c *Client) decode(msg inbound, into any) bool {
	if len(msg.Data) == 0 || json.Unmarshal(msg.Data, into) != nil {
		c.replyError(msg.Event, "malformed payload")
		return false
	}
	return true
}

func (c *Client) replyError(event, message string) {
	c.hub.SendTo(c, EventError, errorPayload{Event: event, Message: message})
}
