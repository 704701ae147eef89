package notify

import (
	"context"
	"fmt"
	"log"

	"teamchat-service/internal/models"
	"teamchat-service/internal/observability"
	"teamchat-service/internal/rabbitmq"
	"teamchat-service/internal/repositories"
)

const (
	inAppPreviewLimit = 50
	pushPreviewLimit  = 100
)

// PushEnvelope is the request shape handed to the push gateway. Delivery and
// expired-subscription handling happen on the gateway side.
type PushEnvelope struct {
	RecipientID int                     `json:"recipient_id"`
	Title       string                  `json:"title"`
	Body        string                  `json:"body"`
	Icon        string                  `json:"icon"`
	URL         string                  `json:"url"`
	Kind        models.NotificationKind `json:"kind"`
	RoomID      int                     `json:"room_id"`
}

// DirectoryNotifier pushes a fresh record to the recipient's live directory
// feed for the bell widget.
type DirectoryNotifier interface {
	BroadcastNotification(recipientID int, n models.Notification)
}

// Dispatcher fans a sent message out into per-recipient notification records.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	subscriptions repositories.PushSubscriptionRepository
	publisher     rabbitmq.Publisher
	directory     DirectoryNotifier
	pushKey       string
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(
	notifications repositories.NotificationRepository,
	subscriptions repositories.PushSubscriptionRepository,
	publisher rabbitmq.Publisher,
	directory DirectoryNotifier,
	pushKey string,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		subscriptions: subscriptions,
		publisher:     publisher,
		directory:     directory,
		pushKey:       pushKey,
	}
}

// Dispatch runs after a successful message send. Every room member except
// the sender receives exactly one record: chat_mention when the body
// @-mentions them, chat_message otherwise. Each recipient is independent
// best-effort; one failed write never blocks the siblings, and nothing here
// surfaces to the sending user.
func (d *Dispatcher) Dispatch(ctx context.Context, msg models.Message, room models.Room, roomDisplayName string, members []models.User) {
	for _, member := range members {
		if member.ID == msg.SenderID {
			continue
		}

		kind := models.NotificationChatMessage
		text := fmt.Sprintf("%s sent a message in %s: %s", msg.SenderName, roomDisplayName, truncate(msg.Body, inAppPreviewLimit))
		if MentionsUser(msg.Body, member) {
			kind = models.NotificationChatMention
			text = fmt.Sprintf("%s mentioned you in %s: %s", msg.SenderName, roomDisplayName, truncate(msg.Body, inAppPreviewLimit))
		}

		record, err := d.notifications.CreateNotification(ctx, member.ID, kind, text, room.ID)
		if err != nil {
			log.Printf("notification fanout failed recipient=%d room=%d: %v", member.ID, room.ID, err)
			observability.IncNotificationFanout(string(kind), "error")
			continue
		}
		observability.IncNotificationFanout(string(kind), "ok")

		if d.directory != nil {
			d.directory.BroadcastNotification(member.ID, record)
		}

		d.push(ctx, msg, room, roomDisplayName, member.ID, kind)
	}
}

// push hands the record to the push gateway when the recipient holds an
// active device subscription.
func (d *Dispatcher) push(ctx context.Context, msg models.Message, room models.Room, roomDisplayName string, recipientID int, kind models.NotificationKind) {
	if d.subscriptions == nil || d.publisher == nil {
		return
	}

	subs, err := d.subscriptions.ListActiveForUser(ctx, recipientID)
	if err != nil {
		log.Printf("push subscription lookup failed recipient=%d: %v", recipientID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	envelope := PushEnvelope{
		RecipientID: recipientID,
		Title:       roomDisplayName,
		Body:        fmt.Sprintf("%s: %s", msg.SenderName, truncate(msg.Body, pushPreviewLimit)),
		Icon:        msg.SenderAvatar,
		URL:         fmt.Sprintf("/chat?room=%d", room.ID),
		Kind:        kind,
		RoomID:      room.ID,
	}
	if err := d.publisher.Publish(ctx, d.pushKey, envelope); err != nil {
		log.Printf("push publish failed recipient=%d: %v", recipientID, err)
		observability.IncAMQPPublishError()
	}
}

// truncate cuts a string to at most limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
