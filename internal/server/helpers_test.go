package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *Server
	mux    *http.ServeMux
	clock  *clock.Fake
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	reg, clk := testutil.NewFakeRegistry(t)
	cfg.Clock = clk
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	s := NewServer(cfg, reg)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return &testServer{server: s, mux: mux, clock: clk}
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
