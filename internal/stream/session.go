package stream

import (
	"context"
	"sort"
	"sync"

	"teamchat-service/internal/models"
)

// Loader fetches a room's ordered message history.
type Loader interface {
	ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error)
}

// Feed is a room-scoped change feed; Subscribe returns the cancel function
// for the registration.
type Feed interface {
	SubscribeRoom(roomID int, onMessage func(models.Message)) func()
}

// Session owns one viewer's live message stream. At most one room feed is
// subscribed at a time: entering a room tears the previous one down first,
// so no events leak across a room switch. Arriving messages are re-sorted by
// creation time on every append rather than trusting feed delivery order.
type Session struct {
	loader Loader
	feed   Feed

	mu          sync.Mutex
	roomID      int
	active      bool
	unsubscribe func()
	messages    []models.Message
}

// NewSession builds an idle session.
func NewSession(loader Loader, feed Feed) *Session {
	return &Session{loader: loader, feed: feed}
}

// Enter loads a room's history and subscribes to its feed. Entering the room
// the session is already in reloads history without adding a second
// subscription; entering a different room unsubscribes and clears first.
func (s *Session) Enter(ctx context.Context, roomID int) error {
	s.mu.Lock()
	sameRoom := s.active && s.roomID == roomID
	if !sameRoom {
		s.leaveLocked()
	}
	s.mu.Unlock()

	history, err := s.loader.ListRoomMessages(ctx, roomID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append([]models.Message(nil), history...)
	s.sortLocked()
	s.roomID = roomID

	if !s.active {
		s.unsubscribe = s.feed.SubscribeRoom(roomID, s.append)
		s.active = true
	}
	return nil
}

// Leave unsubscribes the current feed and clears the in-memory list.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked()
}

func (s *Session) leaveLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.active = false
	s.roomID = 0
	s.messages = nil
}

// Active reports whether the session currently follows a room, and which.
func (s *Session) Active() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.active
}

// Messages returns a copy of the current ordered sequence.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Session) append(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || msg.RoomID != s.roomID {
		return
	}
	s.messages = append(s.messages, msg)
	s.sortLocked()
}

// sortLocked re-sorts by CreatedAt; the stable sort keeps arrival order for
// equal timestamps.
func (s *Session) sortLocked() {
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].CreatedAt.Before(s.messages[j].CreatedAt)
	})
}
