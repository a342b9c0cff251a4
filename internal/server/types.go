package server

import (
	"net/http"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/report"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	registry    *stopwatch.Registry
	clock       clock.Clock
	corsOrigin  string
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	// TimeoutSec bounds reads and writes of the http.Server built by the caller.
	TimeoutSec int

	RateLimitEnabled  bool
	RequestsPerMinute int

	// Clock drives rate limiting windows. Defaults to clock.System.
	Clock clock.Clock
}

// Response types for API endpoints.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version,omitempty"`
	Time        string `json:"time"`
	Stopwatches int    `json:"stopwatches"`
}

// CreateRequest is the body of POST /stopwatches.
type CreateRequest struct {
	ID string `json:"id"`
}

type StopwatchResponse struct {
	Success   bool          `json:"success"`
	Stopwatch *report.Entry `json:"stopwatch,omitempty"`
}

type ListResponse struct {
	Success     bool           `json:"success"`
	Stopwatches []report.Entry `json:"stopwatches"`
	Count       int            `json:"count"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

// NewServer creates a server exposing the stopwatches of reg. A nil
// registry gets a fresh one on the configured clock.
func NewServer(config Config, reg *stopwatch.Registry) *Server {
	clk := config.Clock
	if clk == nil {
		clk = clock.System
	}
	if reg == nil {
		reg = stopwatch.NewRegistry(clk)
	}

	s := &Server{
		registry:   reg,
		clock:      clk,
		corsOrigin: config.CORSOrigin,
	}
	if config.RateLimitEnabled {
		s.rateLimiter = NewRateLimiter(config.RequestsPerMinute, clk)
	}
	registeredStopwatches.Set(float64(reg.Len()))
	return s
}

// Registry returns the registry served by s.
func (s *Server) Registry() *stopwatch.Registry {
	return s.registry
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/stopwatches", s.corsMiddleware(s.rateLimitMiddleware(s.stopwatchesHandler)))
	mux.HandleFunc("/stopwatches/{id}", s.corsMiddleware(s.rateLimitMiddleware(s.stopwatchHandler)))
	for _, op := range []operation{opStart, opStop, opLap, opReset} {
		mux.HandleFunc("/stopwatches/{id}/"+string(op), s.corsMiddleware(s.rateLimitMiddleware(s.operationHandler(op))))
	}
	mux.HandleFunc("/stopwatches/{id}/laps", s.corsMiddleware(s.rateLimitMiddleware(s.lapsHandler)))

	// The upgrade needs the raw ResponseWriter, so /ws skips the middleware.
	mux.HandleFunc("/ws", s.webSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
