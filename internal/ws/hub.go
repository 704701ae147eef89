package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"teamchat-service/internal/models"
	"teamchat-service/internal/observability"
	"teamchat-service/internal/stream"
)

// Hub maintains active websocket connections: per-room feeds for message and
// typing events, and per-user directory feeds for room-created and
// notification events. It also carries in-process room subscriptions so a
// stream session can follow a room without holding a socket.
type Hub struct {
	mu             sync.RWMutex
	roomConns      map[int]map[*websocket.Conn]ConnInfo
	directoryConns map[int]map[*websocket.Conn]ConnInfo
	listeners      map[int]map[int]func(models.Message)
	nextListener   int
}

var _ stream.Feed = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		roomConns:      make(map[int]map[*websocket.Conn]ConnInfo),
		directoryConns: make(map[int]map[*websocket.Conn]ConnInfo),
		listeners:      make(map[int]map[int]func(models.Message)),
	}
}

// AddRoomClient registers a websocket connection to a room feed.
func (h *Hub) AddRoomClient(roomID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.roomConns[roomID]; !ok {
		h.roomConns[roomID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.roomConns[roomID][conn] = info
}

// RemoveRoomClient removes a room websocket connection.
func (h *Hub) RemoveRoomClient(roomID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.roomConns[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.roomConns, roomID)
		}
	}
}

// RoomClientCount reports how many connections remain on a room feed.
func (h *Hub) RoomClientCount(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomConns[roomID])
}

// AddDirectoryClient registers a per-user directory connection.
func (h *Hub) AddDirectoryClient(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.directoryConns[userID]; !ok {
		h.directoryConns[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.directoryConns[userID][conn] = info
}

// RemoveDirectoryClient removes a directory connection.
func (h *Hub) RemoveDirectoryClient(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.directoryConns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.directoryConns, userID)
		}
	}
}

// SubscribeRoom attaches an in-process listener to a room's message feed and
// returns its cancel function.
func (h *Hub) SubscribeRoom(roomID int, onMessage func(models.Message)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[roomID]; !ok {
		h.listeners[roomID] = make(map[int]func(models.Message))
	}
	id := h.nextListener
	h.nextListener++
	h.listeners[roomID][id] = onMessage

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if listeners, ok := h.listeners[roomID]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.listeners, roomID)
			}
		}
	}
}

// BroadcastRoomMessage delivers a new message to every connection and
// in-process listener on the room feed.
func (h *Hub) BroadcastRoomMessage(roomID int, msg models.Message) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.roomConns[roomID]))
	for conn, info := range h.roomConns[roomID] {
		conns[conn] = info
	}
	fns := make([]func(models.Message), 0, len(h.listeners[roomID]))
	for _, fn := range h.listeners[roomID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	event := models.RoomEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			h.publishWSError("room", roomID, conn, err)
			conn.Close()
			h.RemoveRoomClient(roomID, conn)
		}
	}

	for _, fn := range fns {
		fn(msg)
	}
}

// BroadcastTyping delivers a typing signal to everyone in the room except
// the typer themself; a viewer never sees their own signal.
func (h *Hub) BroadcastTyping(ev models.TypingEvent) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.roomConns[ev.RoomID]))
	for conn, info := range h.roomConns[ev.RoomID] {
		conns[conn] = info
	}
	h.mu.RUnlock()

	event := models.RoomEvent{Type: "typing", Typing: &ev}
	payload, _ := json.Marshal(event)
	for conn, info := range conns {
		if info.UserID == ev.UserID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			h.publishWSError("room", ev.RoomID, conn, err)
			conn.Close()
			h.RemoveRoomClient(ev.RoomID, conn)
		}
	}
}

// BroadcastRoomCreated tells every member's directory feed about a new room.
func (h *Hub) BroadcastRoomCreated(room models.Room, memberIDs []int) {
	event := models.DirectoryEvent{Type: "room_created", Room: &room}
	payload, _ := json.Marshal(event)
	for _, memberID := range memberIDs {
		h.writeDirectory(memberID, payload)
	}
}

// BroadcastNotification pushes a fresh notification record to the
// recipient's directory feed for the bell widget.
func (h *Hub) BroadcastNotification(recipientID int, n models.Notification) {
	event := models.DirectoryEvent{Type: "notification", Notification: &n}
	payload, _ := json.Marshal(event)
	h.writeDirectory(recipientID, payload)
}

func (h *Hub) writeDirectory(userID int, payload []byte) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.directoryConns[userID]))
	for conn, info := range h.directoryConns[userID] {
		conns[conn] = info
	}
	h.mu.RUnlock()

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			h.publishWSError("directory", userID, conn, err)
			conn.Close()
			h.RemoveDirectoryClient(userID, conn)
		}
	}
}

func (h *Hub) publishWSError(kind string, resourceID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, resourceID, conn)
	if !ok {
		return
	}

	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(kind, resourceID, info, "ws_error", err.Error()),
	})
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind string, resourceID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "room" {
		if infos, ok := h.roomConns[resourceID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	if infos, ok := h.directoryConns[resourceID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsRoutingKey(kind string) string {
	if kind == "directory" {
		return "ws_events.directory"
	}
	return "ws_events.rooms"
}

func wsEventPayload(kind string, resourceID int, info ConnInfo, event, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
