package quote

import (
	"regexp"
	"sync"
	"time"
)

// inputPattern accepts non-negative decimal text: digits with at most one
// decimal point. Anything else is rejected at the keystroke, never surfaced
// as an error.
var inputPattern = regexp.MustCompile(`^\d*\.?\d*$`)

// Debouncer turns raw typed input into a committed amount after a quiet
// window. A new accepted input cancels the still-pending commit, so two
// delayed commits never race.
type Debouncer struct {
	delay    time.Duration
	onCommit func(string)

	mu        sync.Mutex
	raw       string
	committed string
	timer     *time.Timer
}

func NewDebouncer(delay time.Duration, onCommit func(string)) *Debouncer {
	return &Debouncer{delay: delay, onCommit: onCommit}
}

// Input offers new raw text. Returns false if the text fails the decimal
// pattern, in which case nothing changes.
func (d *Debouncer) Input(text string) bool {
	if !inputPattern.MatchString(text) {
		return false
	}

	d.mu.Lock()
	d.raw = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.commit(text) })
	d.mu.Unlock()

	return true
}

func (d *Debouncer) commit(text string) {
	d.mu.Lock()
	if d.raw != text {
		d.mu.Unlock()
		return
	}
	d.committed = text
	cb := d.onCommit
	d.mu.Unlock()

	if cb != nil {
		cb(text)
	}
}

// Raw returns the latest accepted input, committed or not.
func (d *Debouncer) Raw() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Committed returns the last committed amount.
func (d *Debouncer) Committed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Flush commits the current raw input immediately, cancelling any pending
// timer. Used by non-interactive callers that have no keystrokes to debounce.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	raw := d.raw
	d.mu.Unlock()
	d.commit(raw)
}
