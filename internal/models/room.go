package models

import "time"

// RoomKind discriminates two-party rooms from project-linked ones.
type RoomKind string

const (
	RoomKindPrivate RoomKind = "private"
	RoomKindGroup   RoomKind = "group"
)

// Room is a named channel of message exchange between a fixed member set.
// A private room's name/avatar are always derived from its members; a group
// room's stored name/avatar are authoritative.
type Room struct {
	ID        int       `db:"id" json:"id"`
	Kind      RoomKind  `db:"kind" json:"kind"`
	Name      string    `db:"name" json:"name,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoomSummary is a room plus the per-listing extras: its member set and the
// most recent message preview.
type RoomSummary struct {
	Room
	MemberIDs         []int  `db:"-" json:"member_ids"`
	LastMessageBody   string `db:"last_body" json:"last_message_body,omitempty"`
	LastMessageSender string `db:"last_sender" json:"last_message_sender,omitempty"`
}
