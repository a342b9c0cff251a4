package stopwatch

import (
	"fmt"
	"sync"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
)

// Registry creates stopwatches and keeps a reference to every one of them.
// Identifiers are unique for the lifetime of the registry; there is no
// removal.
type Registry struct {
	clock clock.Clock

	mu    sync.RWMutex
	byID  map[string]*Stopwatch
	order []*Stopwatch
}

// NewRegistry returns an empty registry whose stopwatches read time from clk.
// A nil clk selects clock.System.
func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.System
	}
	return &Registry{
		clock: clk,
		byID:  make(map[string]*Stopwatch),
	}
}

// Create registers and returns a new stopwatch. It fails with an error
// wrapping ErrInvalidArgument if id is empty or already registered.
func (r *Registry) Create(id string) (*Stopwatch, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: stopwatch id must not be empty", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	sw := newStopwatch(id, r.clock)
	r.byID[id] = sw
	r.order = append(r.order, sw)
	return sw, nil
}

// Get returns the stopwatch registered under id.
func (r *Registry) Get(id string) (*Stopwatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sw, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sw, nil
}

// List returns every registered stopwatch in creation order. The slice is a
// copy; the stopwatches are shared.
func (r *Registry) List() []*Stopwatch {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Stopwatch, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered stopwatches.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
