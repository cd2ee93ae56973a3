package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-chat/internal/chat"
	"campus-chat/internal/models"
	"campus-chat/internal/storage"
	"campus-chat/internal/telemetry"
)

// PrivateChatHandler serves one-to-one match chat endpoints.
type PrivateChatHandler struct {
	svc    *chat.Service
	images storage.ImageStore
	audit  *telemetry.AuditEmitter
}

func NewPrivateChatHandler(svc *chat.Service, images storage.ImageStore, audit *telemetry.AuditEmitter) *PrivateChatHandler {
	return &PrivateChatHandler{svc: svc, images: images, audit: audit}
}

// PostMessage sends a text message to the other participant of a match.
func (h *PrivateChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		MatchID     string `json:"match_id" binding:"required"`
		RecipientID string `json:"recipient_id"`
		Text        string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match_id"})
		return
	}

	h.send(c, chat.SendRequest{
		SurfaceID:   matchID,
		SenderID:    c.GetString("userID"),
		RecipientID: req.RecipientID,
		Text:        req.Text,
	})
}

// PostImage stores an uploaded image and sends it as a match message.
func (h *PrivateChatHandler) PostImage(c *gin.Context) {
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	matchID, err := uuid.Parse(c.PostForm("match_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match_id"})
		return
	}
	userID := c.GetString("userID")

	// Nothing is stored for non-participants.
	if err := h.svc.Gate().Authorize(c.Request.Context(), models.SurfacePrivate, matchID, userID); err != nil {
		writeChatError(c, err, "failed to verify match")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer src.Close()

	url, err := h.images.Save(c.Request.Context(), src)
	if err != nil {
		if isUploadRejection(err) {
			writeChatError(c, err, "")
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	sent := h.send(c, chat.SendRequest{
		SurfaceID:   matchID,
		SenderID:    userID,
		RecipientID: c.PostForm("recipient_id"),
		ImageURL:    url,
	})
	if !sent {
		if err := h.images.Delete(c.Request.Context(), url); err != nil {
			_ = c.Error(err)
		}
	}
}

// GetMessages returns the match history and marks the caller's incoming messages seen.
func (h *PrivateChatHandler) GetMessages(c *gin.Context) {
	matchID, ok := parseSurfaceID(c, "matchId")
	if !ok {
		return
	}
	msgs, err := h.svc.History(c.Request.Context(), models.SurfacePrivate, matchID, c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *PrivateChatHandler) send(c *gin.Context, req chat.SendRequest) bool {
	view, err := h.svc.Send(c.Request.Context(), models.SurfacePrivate, req)
	if err != nil {
		if isForbidden(err) {
			emitAudit(c, h.audit, "WARN", "private send denied: "+req.SurfaceID.String())
		}
		writeChatError(c, err, "failed to send message")
		return false
	}
	c.JSON(http.StatusCreated, view)
	return true
}
