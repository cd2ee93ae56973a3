package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/chat"
	"campus-chat/internal/models"
	"campus-chat/internal/telemetry"
)

// InternalHandler serves the service-to-service routes used by the community,
// event and matching services.
type InternalHandler struct {
	svc   *chat.Service
	audit *telemetry.AuditEmitter
}

func NewInternalHandler(svc *chat.Service, audit *telemetry.AuditEmitter) *InternalHandler {
	return &InternalHandler{svc: svc, audit: audit}
}

func (h *InternalHandler) ProvisionLounge(c *gin.Context) {
	var req struct {
		ParentType string `json:"parent_type" binding:"required"`
		ParentID   string `json:"parent_id" binding:"required"`
		Name       string `json:"name"`
		CreatedBy  string `json:"created_by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lounge, err := h.svc.ProvisionLounge(c.Request.Context(), models.ParentType(req.ParentType), req.ParentID, req.Name, req.CreatedBy)
	if err != nil {
		writeChatError(c, err, "failed to provision lounge")
		return
	}
	c.JSON(http.StatusCreated, lounge)
}

func (h *InternalHandler) DestroyLounge(c *gin.Context) {
	parentType, parentID := models.ParentType(c.Param("parentType")), c.Param("parentId")
	loungeID, err := h.svc.DestroyLounge(c.Request.Context(), parentType, parentID)
	if err != nil {
		writeChatError(c, err, "failed to destroy lounge")
		return
	}
	emitAudit(c, h.audit, "INFO", "lounge destroyed: "+loungeID.String())
	c.JSON(http.StatusOK, gin.H{"deleted": loungeID})
}

func (h *InternalHandler) OpenMatch(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required,len=2"`
		Via     string   `json:"via" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.svc.OpenMatch(c.Request.Context(), req.UserIDs[0], req.UserIDs[1], models.MatchVia(req.Via))
	if err != nil {
		writeChatError(c, err, "failed to open match")
		return
	}
	c.JSON(http.StatusOK, match)
}
