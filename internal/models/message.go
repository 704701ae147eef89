package models

import "time"

// Message is an immutable chat message. Sender name and avatar are copied at
// send time so history shows the sender as they were, not as they are now.
type Message struct {
	ID           int       `db:"id" json:"id"`
	RoomID       int       `db:"room_id" json:"room_id"`
	SenderID     int       `db:"sender_id" json:"sender_id"`
	SenderName   string    `db:"sender_name" json:"sender_name"`
	SenderAvatar string    `db:"sender_avatar" json:"sender_avatar"`
	Body         string    `db:"body" json:"body"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
