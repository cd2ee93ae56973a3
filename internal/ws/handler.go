package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"campus-chat/internal/middleware"
	"campus-chat/internal/observability"
	"campus-chat/internal/presence"
)

// TokenValidator resolves an access token to a user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

type presenceEvent struct {
	UserID string `json:"user_id"`
}

// Handler upgrades GET /ws and runs the connection until it closes.
type Handler struct {
	hub      *Hub
	authz    RoomAuthorizer
	tokens   TokenValidator
	presence presence.Tracker
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(hub *Hub, authz RoomAuthorizer, tokens TokenValidator, tracker presence.Tracker, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		hub:      hub,
		authz:    authz,
		tokens:   tokens,
		presence: tracker,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		log:      log.Named("ws"),
	}
}

func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("campus-chat/ws").Start(c.Request.Context(), "ws.handshake")
	c.Request = c.Request.WithContext(ctx)

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	userID, err := h.tokens.Validate(token)
	if err != nil {
		span.End()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	span.End()

	client := newClient(h.hub, conn, info, h.authz, h.log)
	h.hub.Register(client)
	observability.IncWSActive()
	publishLifecycle(ctx, info, "ws_connect", "")
	h.markOnline(ctx, userID)

	go client.writePump()
	reason := client.readPump(ctx)

	h.hub.Unregister(client)
	observability.DecWSActive()
	h.markOffline(context.WithoutCancel(ctx), userID)
	publishLifecycle(context.WithoutCancel(ctx), info, "ws_disconnect", reason)
}

func (h *Handler) markOnline(ctx context.Context, userID string) {
	first, err := h.presence.Connect(ctx, userID)
	if err != nil {
		h.log.Warn("presence connect failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if first {
		h.hub.Broadcast(EventUserOnline, presenceEvent{UserID: userID})
	}
}

func (h *Handler) markOffline(ctx context.Context, userID string) {
	last, err := h.presence.Disconnect(ctx, userID)
	if err != nil {
		h.log.Warn("presence disconnect failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if last {
		h.hub.Broadcast(EventUserOffline, presenceEvent{UserID: userID})
	}
}

// originChecker allows any origin when the list is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
