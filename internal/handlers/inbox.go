package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/chat"
)

// InboxHandler lists the caller's conversations with a last-message preview.
type InboxHandler struct {
	svc *chat.Service
}

func NewInboxHandler(svc *chat.Service) *InboxHandler {
	return &InboxHandler{svc: svc}
}

func (h *InboxHandler) Lounges(c *gin.Context) {
	lounges, err := h.svc.LoungeInbox(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to load lounges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lounges": lounges})
}

func (h *InboxHandler) Matches(c *gin.Context) {
	matches, err := h.svc.MatchInbox(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeChatError(c, err, "failed to load matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
