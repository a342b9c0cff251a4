// Package clock abstracts the monotonic time source used for elapsed-time
// measurement so that timing code can be driven deterministically in tests.
package clock

import "time"

// Clock reports the current instant. Implementations must never move
// backwards; the values are only ever subtracted from one another.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now(), which carries a monotonic clock reading.
func (systemClock) Now() time.Time {
	return time.Now()
}

// System is the process clock backed by the runtime's monotonic timer.
var System Clock = systemClock{}
