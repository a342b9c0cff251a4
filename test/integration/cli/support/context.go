package support

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Stopwatch state
	Clock    *clock.Fake
	Registry *stopwatch.Registry
	LastErr  error

	// Concurrency results
	SuccessfulCreates int
	FailedCreates     int

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	// Command execution state
	LastCommand  string
	LastOutput   string
	LastError    error
	LastDuration time.Duration

	// Test environment
	TempDir string
}

// NewTestContext creates a new test context with a fake clock and an empty registry.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "lapwatch-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	clk := clock.NewFake(time.Time{})
	return &TestContext{
		Clock:           clk,
		Registry:        stopwatch.NewRegistry(clk),
		LastHTTPHeaders: map[string]string{},
		TempDir:         tempDir,
	}, nil
}

// Cleanup stops the test server and removes temporary files.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
		testCtx.HTTPTestServer = nil
	}

	if testCtx.TempDir != "" {
		if err := os.RemoveAll(testCtx.TempDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove temp dir: %w", err))
		}
	}

	return errors.Join(errs...)
}
