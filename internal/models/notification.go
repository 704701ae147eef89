package models

import "time"

// NotificationKind tags a notification record.
type NotificationKind string

const (
	NotificationChatMention NotificationKind = "chat_mention"
	NotificationChatMessage NotificationKind = "chat_message"
)

// Notification is a per-recipient record produced by message fan-out.
type Notification struct {
	ID          int              `db:"id" json:"id"`
	RecipientID int              `db:"recipient_id" json:"recipient_id"`
	Kind        NotificationKind `db:"kind" json:"kind"`
	Message     string           `db:"message" json:"message"`
	RoomID      int              `db:"room_id" json:"room_id"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// PushSubscription marks a user device eligible for push delivery. The
// delivery transport itself lives behind the push gateway.
type PushSubscription struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
