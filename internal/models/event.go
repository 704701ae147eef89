package models

// TypingEvent is the ephemeral typing signal exchanged over a room socket.
// It is broadcast-only and never persisted.
type TypingEvent struct {
	RoomID      int    `json:"room_id"`
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}

// RoomEvent is broadcast over room websocket connections.
type RoomEvent struct {
	Type    string       `json:"type"` // "message" or "typing"
	Message *Message     `json:"message,omitempty"`
	Typing  *TypingEvent `json:"typing,omitempty"`
}

// DirectoryEvent is broadcast over per-user directory connections.
type DirectoryEvent struct {
	Type         string        `json:"type"` // "room_created" or "notification"
	Room         *Room         `json:"room,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}
