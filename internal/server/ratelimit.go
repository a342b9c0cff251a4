package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
)

// RateLimiter allows each client a fixed number of requests per minute.
type RateLimiter struct {
	mu sync.Mutex

	clock             clock.Clock
	requestsPerMinute int

	clients map[string]*ClientUsage
}

// ClientUsage tracks the current window of a specific client/IP.
type ClientUsage struct {
	windowStart time.Time
	requests    int
}

// Requests returns the number of requests counted in the current window.
func (u ClientUsage) Requests() int {
	return u.requests
}

// NewRateLimiter creates a new rate limiter. A nil clock means clock.System.
func NewRateLimiter(requestsPerMinute int, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.System
	}
	return &RateLimiter{
		clock:             clk,
		requestsPerMinute: requestsPerMinute,
		clients:           make(map[string]*ClientUsage),
	}
}

// CheckRateLimit counts a request from clientID and reports a
// *RateLimitError once the client's quota for the current minute is used.
func (rl *RateLimiter) CheckRateLimit(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	usage, exists := rl.clients[clientID]
	if !exists || now.Sub(usage.windowStart) >= time.Minute {
		usage = &ClientUsage{windowStart: now}
		rl.clients[clientID] = usage
	}

	if rl.requestsPerMinute > 0 && usage.requests >= rl.requestsPerMinute {
		return &RateLimitError{
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.windowStart),
		}
	}

	usage.requests++
	return nil
}

// GetUsage returns a copy of the usage of a client.
func (rl *RateLimiter) GetUsage(clientID string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage, exists := rl.clients[clientID]; exists {
		return *usage
	}
	return ClientUsage{}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Limit      int           // requests allowed per minute
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (limit: %d per minute, retry after: %v)", e.Limit, e.RetryAfter)
}
