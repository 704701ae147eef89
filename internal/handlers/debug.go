package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamchat-service/internal/presence"
	"teamchat-service/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, tracker *presence.Tracker, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/typers/:room_id", func(c *gin.Context) {
		if tracker == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tracker not configured"})
			return
		}
		roomID, err := strconv.Atoi(c.Param("room_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"typers": tracker.CurrentTypers(roomID, 0)})
	})
}
