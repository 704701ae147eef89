package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"teamchat-service/internal/models"
)

var ErrSubscriptionNotFound = errors.New("push subscription not found")

// PushSubscriptionRepository tracks which user devices are push-eligible.
type PushSubscriptionRepository interface {
	Register(ctx context.Context, userID int, endpoint string, deviceID string) (models.PushSubscription, error)
	Deactivate(ctx context.Context, subscriptionID int, userID int) error
	ListActiveForUser(ctx context.Context, userID int) ([]models.PushSubscription, error)
}

// PushSubscriptionRepo is a sqlx implementation of PushSubscriptionRepository.
type PushSubscriptionRepo struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepo constructs a PushSubscriptionRepo.
func NewPushSubscriptionRepo(db *sqlx.DB) *PushSubscriptionRepo {
	return &PushSubscriptionRepo{db: db}
}

// Register records an active device subscription.
func (r *PushSubscriptionRepo) Register(ctx context.Context, userID int, endpoint string, deviceID string) (models.PushSubscription, error) {
	var sub models.PushSubscription
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, device_id) VALUES ($1, $2, $3)
         RETURNING id, user_id, endpoint, device_id, active, created_at`,
		userID, endpoint, deviceID).
		Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.DeviceID, &sub.Active, &sub.CreatedAt)
	return sub, err
}

// Deactivate marks a subscription inactive. Used for explicit unsubscribes
// and for expired-subscription cleanup reported by the push gateway.
func (r *PushSubscriptionRepo) Deactivate(ctx context.Context, subscriptionID int, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE push_subscriptions SET active = FALSE WHERE id=$1 AND user_id=$2`, subscriptionID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ListActiveForUser returns the user's active subscriptions.
func (r *PushSubscriptionRepo) ListActiveForUser(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT id, user_id, endpoint, device_id, active, created_at
         FROM push_subscriptions WHERE user_id=$1 AND active = TRUE ORDER BY id`, userID)
	return subs, err
}
