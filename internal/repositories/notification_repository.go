package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"teamchat-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository abstracts notification persistence.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, recipientID int, kind models.NotificationKind, message string, roomID int) (models.Notification, error)
	ListForUser(ctx context.Context, userID int) ([]models.Notification, error)
	SetRead(ctx context.Context, notificationID int, userID int, read bool) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification inserts one recipient's record.
func (r *NotificationRepo) CreateNotification(ctx context.Context, recipientID int, kind models.NotificationKind, message string, roomID int) (models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (recipient_id, kind, message, room_id) VALUES ($1, $2, $3, $4)
         RETURNING id, recipient_id, kind, message, room_id, read, created_at`,
		recipientID, kind, message, roomID).
		Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Message, &n.RoomID, &n.Read, &n.CreatedAt)
	return n, err
}

// ListForUser returns the user's notifications newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list,
		`SELECT id, recipient_id, kind, message, room_id, read, created_at
         FROM notifications WHERE recipient_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	return list, err
}

// SetRead toggles the read flag; only the recipient may toggle their records.
func (r *NotificationRepo) SetRead(ctx context.Context, notificationID int, userID int, read bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read=$1 WHERE id=$2 AND recipient_id=$3`, read, notificationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
