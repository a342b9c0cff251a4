package support

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// Close shuts the test server down.
func (w *HTTPTestServerWrapper) Close() {
	w.Server.Close()
}

// startTestHTTPServer serves the scenario's registry over httptest.
func (testCtx *TestContext) startTestHTTPServer(cfg server.Config) error {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
	}

	cfg.Clock = testCtx.Clock
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	api := server.NewServer(cfg, testCtx.Registry)
	mux := http.NewServeMux()
	api.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(mux),
		TestServer: api,
	}
	return nil
}

// sendRequest performs a request against the test server and records the response.
func (testCtx *TestContext) sendRequest(method, path, body string) error {
	if testCtx.HTTPTestServer == nil {
		return fmt.Errorf("the API server is not running")
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, testCtx.HTTPTestServer.Server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}
