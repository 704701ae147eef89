package presence

import (
	"sync"
	"time"
)

// ComposerDebounce is the sender-side quiet window after the last keystroke
// before an automatic "stopped typing" is emitted.
const ComposerDebounce = 3 * time.Second

// Debouncer drives the sender side of the typing protocol: every keystroke
// emits typing=true and rearms a single timer whose firing emits
// typing=false. Sending a message flushes the false immediately.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	emit  func(isTyping bool)
	timer *time.Timer
}

// NewDebouncer builds a debouncer emitting through the given callback.
func NewDebouncer(delay time.Duration, emit func(isTyping bool)) *Debouncer {
	return &Debouncer{delay: delay, emit: emit}
}

// Keystroke signals typing=true and (re)arms the quiet timer.
func (d *Debouncer) Keystroke() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
	d.mu.Unlock()

	d.emit(true)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()

	d.emit(false)
}

// Flush signals typing=false immediately and cancels the pending timer.
// Called when a message is sent or the composer is cleared.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.emit(false)
}

// Stop cancels the pending timer without emitting anything.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}
