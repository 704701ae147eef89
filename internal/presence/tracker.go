package presence

import (
	"sort"
	"sync"
	"time"
)

// TypingExpiry is how long a typing entry survives without a refresh.
const TypingExpiry = 3500 * time.Millisecond

// Typer is one user currently composing in a room.
type Typer struct {
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type pairKey struct {
	roomID int
	userID int
}

type entry struct {
	displayName string
	expiresAt   time.Time
	timer       *time.Timer
}

// Tracker keeps the ephemeral "who is typing" map, one entry per
// (room, user) pair. Entries self-expire after the configured window unless
// refreshed; a refresh resets the pair's single pending timer rather than
// stacking a new one. Nothing here is ever persisted.
//
// Signals carry no sequence numbers, so a delayed "stop typing" arriving
// after a newer "start typing" clears the entry: last write wins. Guarding
// against that would change the wire contract.
type Tracker struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[pairKey]*entry
	closed  bool
}

// NewTracker builds a tracker with the given expiry window.
func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window:  window,
		now:     time.Now,
		entries: make(map[pairKey]*entry),
	}
}

// Set applies a typing signal for one (room, user) pair.
func (t *Tracker) Set(roomID, userID int, displayName string, typing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	key := pairKey{roomID: roomID, userID: userID}
	if !typing {
		if e, ok := t.entries[key]; ok {
			e.timer.Stop()
			delete(t.entries, key)
		}
		return
	}

	if e, ok := t.entries[key]; ok {
		e.displayName = displayName
		e.expiresAt = t.now().Add(t.window)
		e.timer.Stop()
		e.timer.Reset(t.window)
		return
	}

	t.entries[key] = &entry{
		displayName: displayName,
		expiresAt:   t.now().Add(t.window),
		timer:       time.AfterFunc(t.window, func() { t.expire(key) }),
	}
}

func (t *Tracker) expire(key pairKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return
	}
	if t.now().Before(e.expiresAt) {
		// refreshed between the timer firing and the lock being taken
		return
	}
	delete(t.entries, key)
}

// CurrentTypers returns who is typing in a room, never including the viewer.
// Entries past their expiry are filtered even if their timer has not fired.
func (t *Tracker) CurrentTypers(roomID int, excludingUserID int) []Typer {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	typers := make([]Typer, 0)
	for key, e := range t.entries {
		if key.roomID != roomID || key.userID == excludingUserID {
			continue
		}
		if !now.Before(e.expiresAt) {
			continue
		}
		typers = append(typers, Typer{UserID: key.userID, DisplayName: e.displayName})
	}
	sort.Slice(typers, func(i, j int) bool { return typers[i].UserID < typers[j].UserID })
	return typers
}

// ClearRoom cancels every pending timer for a room and drops its entries.
// Called when the room session is torn down so no timer leaks across
// room switches.
func (t *Tracker) ClearRoom(roomID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		if key.roomID == roomID {
			e.timer.Stop()
			delete(t.entries, key)
		}
	}
}

// Close cancels all timers and rejects further signals.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for key, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, key)
	}
}
