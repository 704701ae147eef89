package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"teamchat-service/internal/models"
)

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID int, senderID int, senderName string, senderAvatar string, body string) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message with the sender's name and avatar
// denormalized at send time.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID int, senderID int, senderName string, senderAvatar string, body string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, sender_id, sender_name, sender_avatar, body) VALUES ($1, $2, $3, $4, $5)
         RETURNING id, room_id, sender_id, sender_name, sender_avatar, body, created_at`,
		roomID, senderID, senderName, senderAvatar, body).
		Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.SenderName, &msg.SenderAvatar, &msg.Body, &msg.CreatedAt)
	return msg, err
}

// ListRoomMessages returns a room's messages ascending by creation time,
// ties broken by insertion order.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, room_id, sender_id, sender_name, sender_avatar, body, created_at
         FROM messages WHERE room_id=$1 ORDER BY created_at ASC, id ASC`, roomID)
	return msgs, err
}
