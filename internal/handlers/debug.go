package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/telemetry"
	"campus-chat/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitAudit(c, emitter, "INFO", "audit test")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/rooms/:room", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"room": c.Param("room"), "clients": hub.RoomSize(c.Param("room"))})
	})
}
