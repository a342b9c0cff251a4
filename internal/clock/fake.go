package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. It is safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = (*Fake)(nil)

// NewFake returns a Fake clock positioned at start. A zero start is replaced
// with a fixed, non-zero instant.
func NewFake(start time.Time) *Fake {
	if start.IsZero() {
		start = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Fake{now: start}
}

// Now returns the current fake instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d. Negative durations are ignored so the
// clock stays monotonic.
func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
