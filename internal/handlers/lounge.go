package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-chat/internal/chat"
	"campus-chat/internal/models"
	"campus-chat/internal/telemetry"
)

// LoungeHandler serves lounge group chat endpoints.
type LoungeHandler struct {
	svc   *chat.Service
	audit *telemetry.AuditEmitter
}

func NewLoungeHandler(svc *chat.Service, audit *telemetry.AuditEmitter) *LoungeHandler {
	return &LoungeHandler{svc: svc, audit: audit}
}

func parseSurfaceID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

// GetLounge returns lounge details for the caller.
func (h *LoungeHandler) GetLounge(c *gin.Context) {
	loungeID, ok := parseSurfaceID(c, "surfaceId")
	if !ok {
		return
	}
	lounge, err := h.svc.GetLounge(c.Request.Context(), loungeID, c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to load lounge")
		return
	}
	c.JSON(http.StatusOK, lounge)
}

func (h *LoungeHandler) Join(c *gin.Context) {
	loungeID, ok := parseSurfaceID(c, "surfaceId")
	if !ok {
		return
	}
	lounge, err := h.svc.JoinLounge(c.Request.Context(), loungeID, c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to join lounge")
		return
	}
	emitAudit(c, h.audit, "INFO", "lounge joined: "+loungeID.String())
	c.JSON(http.StatusOK, lounge)
}

func (h *LoungeHandler) Leave(c *gin.Context) {
	loungeID, ok := parseSurfaceID(c, "surfaceId")
	if !ok {
		return
	}
	if err := h.svc.LeaveLounge(c.Request.Context(), loungeID, c.GetString("userID")); err != nil {
		writeChatError(c, err, "failed to leave lounge")
		return
	}
	emitAudit(c, h.audit, "INFO", "lounge left: "+loungeID.String())
	c.Status(http.StatusNoContent)
}

// PostMessage sends an encrypted message to the lounge and fans it out.
func (h *LoungeHandler) PostMessage(c *gin.Context) {
	loungeID, ok := parseSurfaceID(c, "surfaceId")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.Send(c.Request.Context(), models.SurfaceLounge, chat.SendRequest{
		SurfaceID: loungeID,
		SenderID:  c.GetString("userID"),
		Text:      req.Text,
	})
	if err != nil {
		if isForbidden(err) {
			emitAudit(c, h.audit, "WARN", "lounge send denied: "+loungeID.String())
		}
		writeChatError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *LoungeHandler) GetMessages(c *gin.Context) {
	loungeID, ok := parseSurfaceID(c, "surfaceId")
	if !ok {
		return
	}
	msgs, err := h.svc.History(c.Request.Context(), models.SurfaceLounge, loungeID, c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
