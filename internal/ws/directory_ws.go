package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"teamchat-service/internal/observability"
)

var errInvalidToken = errors.New("invalid token")

// DirectoryWebSocketHandler handles per-user directory feed connections,
// which carry room-created and notification events.
type DirectoryWebSocketHandler struct {
	hub       *Hub
	jwtSecret string
}

// NewDirectoryWebSocketHandler constructs a DirectoryWebSocketHandler.
func NewDirectoryWebSocketHandler(hub *Hub, jwtSecret string) *DirectoryWebSocketHandler {
	return &DirectoryWebSocketHandler{hub: hub, jwtSecret: jwtSecret}
}

// Handle upgrades the connection and registers it under the caller's user id.
func (h *DirectoryWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("teamchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := validateWSToken(c, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddDirectoryClient(userID, conn, info)

	observability.IncWSActive("directory")
	observability.IncWSEvent("directory", "ws_connect")
	_ = observability.PublishEvent(ctx, wsRoutingKey("directory"), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("directory", userID, info, "ws_connect", ""),
	})

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveDirectoryClient(userID, conn)
			observability.DecWSActive("directory")
			observability.IncWSEvent("directory", "ws_disconnect")
			_ = observability.PublishEvent(ctx, wsRoutingKey("directory"), observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("directory", userID, info, "ws_disconnect", closeReason),
			})
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				return
			}
		}
	}()
}
