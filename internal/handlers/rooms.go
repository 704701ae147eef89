package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"teamchat-service/internal/directory"
	"teamchat-service/internal/models"
	"teamchat-service/internal/repositories"
	"teamchat-service/internal/telemetry"
	"teamchat-service/internal/ws"
)

// RoomHandler manages room directory endpoints.
type RoomHandler struct {
	roomRepo repositories.RoomRepository
	userRepo repositories.UserRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(roomRepo repositories.RoomRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{
		roomRepo: roomRepo,
		userRepo: userRepo,
		hub:      hub,
		audit:    audit,
	}
}

type roomResponse struct {
	RoomID            int             `json:"room_id"`
	Kind              models.RoomKind `json:"kind"`
	DisplayName       string          `json:"display_name"`
	DisplayAvatar     string          `json:"display_avatar"`
	MemberIDs         []int           `json:"member_ids"`
	LastMessageBody   string          `json:"last_message_body,omitempty"`
	LastMessageSender string          `json:"last_message_sender,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ListRooms returns the caller's rooms, newest-created first, with display
// name and avatar resolved from the caller's seat.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetInt("userID")

	rooms, err := h.roomRepo.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	usersByID, err := h.resolveMembers(c, rooms, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}
	viewer, ok := usersByID[userID]
	if !ok {
		viewer = models.User{ID: userID}
	}

	responses := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		members := make([]models.User, 0, len(room.MemberIDs))
		for _, id := range room.MemberIDs {
			if u, ok := usersByID[id]; ok {
				members = append(members, u)
			}
		}
		display := directory.DeriveDisplay(room.Room, viewer, members)
		responses = append(responses, roomResponse{
			RoomID:            room.ID,
			Kind:              room.Kind,
			DisplayName:       display.Name,
			DisplayAvatar:     display.AvatarURL,
			MemberIDs:         room.MemberIDs,
			LastMessageBody:   room.LastMessageBody,
			LastMessageSender: room.LastMessageSender,
			CreatedAt:         room.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": responses})
}

func (h *RoomHandler) resolveMembers(c *gin.Context, rooms []models.RoomSummary, viewerID int) (map[int]models.User, error) {
	idSet := map[int]struct{}{viewerID: {}}
	ids := []int{viewerID}
	for _, room := range rooms {
		for _, id := range room.MemberIDs {
			if _, ok := idSet[id]; !ok {
				idSet[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[int]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	return usersByID, nil
}

// CreateRoom handles POST /rooms for both private and group rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Kind      string `json:"kind" binding:"required"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		MemberIDs []int  `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.RoomKind(req.Kind)
	if kind != models.RoomKindPrivate && kind != models.RoomKindGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be private or group"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if kind == models.RoomKindGroup && name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group rooms require a name"})
		return
	}
	if kind == models.RoomKindPrivate {
		// private display is always derived, never stored
		name = ""
	}

	memberIDs := dedupeMembers(userID, req.MemberIDs)
	others := make([]int, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	if len(others) > 0 {
		users, err := h.userRepo.BulkUsers(c.Request.Context(), others)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate members"})
			return
		}
		if len(users) != len(others) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member"})
			return
		}
	}

	room, err := h.roomRepo.CreateRoom(c.Request.Context(), userID, kind, name, req.AvatarURL, req.MemberIDs)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRoomCreated(room, memberIDs)
	}

	emitAudit(c, h.audit, "INFO", "Room created")
	c.JSON(http.StatusCreated, gin.H{"room_id": room.ID})
}

// ActiveRoom resolves which room the caller should land in. Candidates come
// in priority order (navigation state, URL parameter, device storage) and
// unmatched ones are silently skipped.
func (h *RoomHandler) ActiveRoom(c *gin.Context) {
	userID := c.GetInt("userID")

	candidates := parseCandidates(c.Query("candidates"))
	rooms, err := h.roomRepo.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	if id, ok := directory.ResolveActiveRoom(candidates, rooms); ok {
		c.JSON(http.StatusOK, gin.H{"room_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": nil})
}

func parseCandidates(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	candidates := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		candidates = append(candidates, id)
	}
	return candidates
}

func dedupeMembers(creatorID int, memberIDs []int) []int {
	seen := map[int]struct{}{creatorID: {}}
	ids := []int{creatorID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
