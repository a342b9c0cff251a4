// Package stopwatch implements thread-safe lap timers and the registry that
// hands them out.
//
// A Stopwatch is either stopped or running. Start, Stop and Lap move it
// between the two states and record lap durations with millisecond
// resolution; Reset returns it to the initial state from anywhere. Every
// operation is serialized by a per-instance mutex, so a single Stopwatch may
// be shared freely between goroutines.
package stopwatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
)

// Resolution is the granularity of every recorded timestamp and lap.
const Resolution = time.Millisecond

// Stopwatch is a named lap timer. Obtain one from a Registry.
type Stopwatch struct {
	id     string
	clock  clock.Clock
	origin time.Time

	mu      sync.Mutex
	running bool
	// stopped is set by Stop and cleared by Reset. It tells Start whether the
	// last recorded lap belongs to an interval that is being resumed.
	stopped bool

	// Timestamps are offsets from origin truncated to Resolution.
	startTime time.Duration
	lapTime   time.Duration
	stopTime  time.Duration

	lastStopSplit time.Duration
	// carry is the part of the open lap that elapsed before the latest stop.
	carry    time.Duration
	lapTimes []time.Duration
}

// Snapshot is a consistent, caller-owned copy of a stopwatch's state.
type Snapshot struct {
	ID      string
	Running bool
	Laps    []time.Duration
	// Elapsed is the total running time, including the open lap.
	Elapsed time.Duration
}

func newStopwatch(id string, clk clock.Clock) *Stopwatch {
	return &Stopwatch{
		id:     id,
		clock:  clk,
		origin: clk.Now(),
	}
}

// ID returns the identifier the stopwatch was registered with.
func (s *Stopwatch) ID() string {
	return s.id
}

// Start starts the stopwatch. Restarting after Stop resumes the lap that Stop
// closed, so no running time is recorded twice.
func (s *Stopwatch) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("%w: stopwatch %q is already running", ErrIllegalState, s.id)
	}

	now := s.now()
	if s.stopped {
		s.resumeLap()
	}
	s.running = true
	s.startTime = now
	s.lapTime = now
	return nil
}

// Lap records the time elapsed since the previous lap boundary.
func (s *Stopwatch) Lap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("%w: stopwatch %q is not running", ErrIllegalState, s.id)
	}

	s.closeLap(s.now())
	return nil
}

// Stop stops the stopwatch and records one final lap.
func (s *Stopwatch) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("%w: stopwatch %q is not running", ErrIllegalState, s.id)
	}

	now := s.now()
	s.lastStopSplit = s.closeLap(now)
	s.stopTime = now
	s.running = false
	s.stopped = true
	return nil
}

// Reset stops the stopwatch without recording a lap and discards all
// recorded laps.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.stopped = false
	s.startTime = 0
	s.lapTime = 0
	s.stopTime = 0
	s.lastStopSplit = 0
	s.carry = 0
	s.lapTimes = nil
}

// LapTimes returns a copy of the recorded laps in chronological order. The
// result is never nil.
func (s *Stopwatch) LapTimes() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copyLaps()
}

// IsRunning reports whether the stopwatch is running.
func (s *Stopwatch) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Elapsed returns the total running time: the recorded laps plus the open
// lap when running.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.elapsed()
}

// Snapshot returns the stopwatch state as of a single instant.
func (s *Stopwatch) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:      s.id,
		Running: s.running,
		Laps:    s.copyLaps(),
		Elapsed: s.elapsed(),
	}
}

func (s *Stopwatch) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fmt.Sprintf("Stopwatch[id=%s running=%t laps=%v]", s.id, s.running, s.lapTimes)
}

// resumeLap takes back the final lap appended by the previous Stop and keeps
// its duration as the head start of the re-opened lap.
func (s *Stopwatch) resumeLap() {
	n := len(s.lapTimes)
	if n == 0 {
		s.carry = s.lastStopSplit
		return
	}
	s.carry = s.lapTimes[n-1]
	s.lapTimes = s.lapTimes[:n-1]
}

// closeLap appends the open lap ending at now and opens the next one.
func (s *Stopwatch) closeLap(now time.Duration) time.Duration {
	d := now - s.lapTime + s.carry
	if d < 0 {
		d = 0
	}
	s.lapTimes = append(s.lapTimes, d)
	s.lapTime = now
	s.carry = 0
	return d
}

func (s *Stopwatch) elapsed() time.Duration {
	var total time.Duration
	for _, d := range s.lapTimes {
		total += d
	}
	if s.running {
		total += s.now() - s.lapTime + s.carry
	}
	return total
}

func (s *Stopwatch) copyLaps() []time.Duration {
	out := make([]time.Duration, len(s.lapTimes))
	copy(out, s.lapTimes)
	return out
}

func (s *Stopwatch) now() time.Duration {
	return s.clock.Now().Sub(s.origin).Truncate(Resolution)
}
