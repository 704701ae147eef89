package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"teamchat-service/internal/auth"
	"teamchat-service/internal/models"
	"teamchat-service/internal/observability"
	"teamchat-service/internal/presence"
	"teamchat-service/internal/repositories"
)

// clientEvent is what room socket clients send upstream. Only typing signals
// travel this way; messages go through the HTTP API.
type clientEvent struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

// RoomWebSocketHandler handles room feed connections.
type RoomWebSocketHandler struct {
	hub       *Hub
	roomRepo  repositories.RoomRepository
	userRepo  repositories.UserRepository
	tracker   *presence.Tracker
	jwtSecret string
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, roomRepo repositories.RoomRepository, userRepo repositories.UserRepository, tracker *presence.Tracker, jwtSecret string) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, roomRepo: roomRepo, userRepo: userRepo, tracker: tracker, jwtSecret: jwtSecret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers the client on the room feed and
// pumps its typing signals until disconnect.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("teamchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.validateToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for room"})
		return
	}

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DisplayName: user.DisplayName,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddRoomClient(roomID, conn, info)

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	_ = observability.PublishEvent(ctx, wsRoutingKey("room"), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("room", roomID, info, "ws_connect", ""),
	})

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveRoomClient(roomID, conn)
			// the disconnecting user stops typing as far as the room is concerned
			h.tracker.Set(roomID, userID, user.DisplayName, false)
			h.hub.BroadcastTyping(models.TypingEvent{RoomID: roomID, UserID: userID, DisplayName: user.DisplayName, IsTyping: false})
			if h.hub.RoomClientCount(roomID) == 0 {
				// nobody left to see the indicators, drop the pending timers
				h.tracker.ClearRoom(roomID)
			}

			observability.DecWSActive("room")
			observability.IncWSEvent("room", "ws_disconnect")
			_ = observability.PublishEvent(ctx, wsRoutingKey("room"), observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("room", roomID, info, "ws_disconnect", closeReason),
			})
			conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("room", "ws_error")
					_ = observability.PublishEvent(ctx, wsRoutingKey("room"), observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload("room", roomID, info, "ws_error", closeReason),
					})
				}
				return
			}

			var event clientEvent
			if err := json.Unmarshal(data, &event); err != nil {
				continue
			}
			if event.Type != "typing" {
				continue
			}

			observability.IncTypingSignal(event.IsTyping)
			h.tracker.Set(roomID, userID, user.DisplayName, event.IsTyping)
			h.hub.BroadcastTyping(models.TypingEvent{
				RoomID:      roomID,
				UserID:      userID,
				DisplayName: user.DisplayName,
				IsTyping:    event.IsTyping,
			})
		}
	}()
}

func (h *RoomWebSocketHandler) validateToken(c *gin.Context) (int, error) {
	return validateWSToken(c, h.jwtSecret)
}

// validateWSToken accepts the bearer token from the Authorization header or,
// for browser websocket clients, a token query parameter.
func validateWSToken(c *gin.Context, secret string) (int, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return 0, errInvalidToken
	}
	return auth.ValidateToken(secret, parts[1])
}
