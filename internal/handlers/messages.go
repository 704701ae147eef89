package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"teamchat-service/internal/directory"
	"teamchat-service/internal/models"
	"teamchat-service/internal/notify"
	"teamchat-service/internal/presence"
	"teamchat-service/internal/repositories"
	"teamchat-service/internal/telemetry"
	"teamchat-service/internal/ws"
)

// MessageHandler manages the message stream endpoints of a room.
type MessageHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	hub         *ws.Hub
	tracker     *presence.Tracker
	dispatcher  *notify.Dispatcher
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(
	roomRepo repositories.RoomRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	hub *ws.Hub,
	tracker *presence.Tracker,
	dispatcher *notify.Dispatcher,
	audit *telemetry.AuditEmitter,
) *MessageHandler {
	return &MessageHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		hub:         hub,
		tracker:     tracker,
		dispatcher:  dispatcher,
		audit:       audit,
	}
}

// GetRoomMessages returns a room's history in stable chronological order.
func (h *MessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		return
	}

	messages, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// PostRoomMessage stores a message, pushes it to live room subscribers,
// clears the sender's typing state, and fans out notifications to the
// remaining members.
func (h *MessageHandler) PostRoomMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}

	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body := req.Body
	if strings.TrimSpace(body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body is empty"})
		return
	}

	sender, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sender"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), roomID, sender.ID, sender.DisplayName, sender.AvatarURL, body)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRoomMessage(roomID, msg)
	}

	// Sending implies the composer went idle.
	if h.tracker != nil {
		h.tracker.Set(roomID, userID, sender.DisplayName, false)
	}
	if h.hub != nil {
		h.hub.BroadcastTyping(models.TypingEvent{
			RoomID:      roomID,
			UserID:      userID,
			DisplayName: sender.DisplayName,
			IsTyping:    false,
		})
	}

	// Fan-out failures must not undo the send; the message is already
	// stored and broadcast.
	h.fanOut(c, msg, room, sender)

	emitAudit(c, h.audit, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) fanOut(c *gin.Context, msg models.Message, room models.Room, sender models.User) {
	if h.dispatcher == nil {
		return
	}
	ctx := c.Request.Context()

	memberIDs, err := h.roomRepo.GetMemberIDs(ctx, room.ID)
	if err != nil {
		log.Printf("fanout: load members for room %d: %v", room.ID, err)
		return
	}
	members, err := h.userRepo.BulkUsers(ctx, memberIDs)
	if err != nil {
		log.Printf("fanout: load users for room %d: %v", room.ID, err)
		return
	}

	display := directory.DeriveDisplay(room, sender, members)
	h.dispatcher.Dispatch(ctx, msg, room, display.Name, members)
}

// GetRoomTypers reports who is currently typing in a room, excluding
// the caller.
func (h *MessageHandler) GetRoomTypers(c *gin.Context) {
	userID := c.GetInt("userID")
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
		return
	}

	typers := h.tracker.CurrentTypers(roomID, userID)
	c.JSON(http.StatusOK, gin.H{"typers": typers})
}
