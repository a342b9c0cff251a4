package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil registry gets a fresh one", func(t *testing.T) {
		s := NewServer(Config{CORSOrigin: "*"}, nil)
		require.NotNil(t, s.Registry())
		assert.Equal(t, 0, s.Registry().Len())
		assert.NotNil(t, s.clock)
		assert.Nil(t, s.rateLimiter)
	})

	t.Run("uses the given registry", func(t *testing.T) {
		reg := stopwatch.NewRegistry(nil)
		_, err := reg.Create("A")
		require.NoError(t, err)

		s := NewServer(Config{}, reg)
		assert.Same(t, reg, s.Registry())
	})

	t.Run("rate limiter only when enabled", func(t *testing.T) {
		s := NewServer(Config{RateLimitEnabled: true, RequestsPerMinute: 5}, nil)
		require.NotNil(t, s.rateLimiter)
		assert.Equal(t, 5, s.rateLimiter.requestsPerMinute)
	})
}

func TestServer_SetupRoutes(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, err := ts.server.Registry().Create("A")
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/stopwatches", http.StatusOK},
		{http.MethodGet, "/stopwatches/A", http.StatusOK},
		{http.MethodPost, "/stopwatches/A/start", http.StatusOK},
		{http.MethodPost, "/stopwatches/A/lap", http.StatusOK},
		{http.MethodPost, "/stopwatches/A/stop", http.StatusOK},
		{http.MethodPost, "/stopwatches/A/reset", http.StatusOK},
		{http.MethodGet, "/stopwatches/A/laps", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/unknown", http.StatusNotFound},
		{http.MethodOptions, "/stopwatches/A/start", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			ts.mux.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestServer_MetricsExposition(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(http.MethodPost, "/stopwatches", CreateRequest{ID: "m"})
	ts.do(http.MethodPost, "/stopwatches/m/start", nil)

	w := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "lapwatch_stopwatch_operations_total")
	assert.Contains(t, body, "lapwatch_http_requests_total")
	assert.Contains(t, body, "lapwatch_stopwatches_registered")
}
