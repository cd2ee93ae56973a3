package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/presence"
)

type PresenceHandler struct {
	tracker presence.Tracker
}

func NewPresenceHandler(tracker presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

func (h *PresenceHandler) Online(c *gin.Context) {
	users, err := h.tracker.Online(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": users})
}
