package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/config"
	"github.com/MeKo-Tech/lapwatch/internal/server"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/MeKo-Tech/lapwatch/internal/version"
	"github.com/spf13/cobra"
)

// serveOptions is the server configuration after CLI flag overrides.
type serveOptions struct {
	config.ServerConfig
}

func newServeCmd(c *cli) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the stopwatch API",
		Long: `Start an HTTP server that exposes a registry of stopwatches.

The server provides the following endpoints:
  GET  /health                      - Health check endpoint
  GET  /stopwatches                 - List stopwatches
  POST /stopwatches                 - Create a stopwatch ({"id":"A"})
  GET  /stopwatches/{id}            - Stopwatch state
  POST /stopwatches/{id}/start      - Start (or resume) a stopwatch
  POST /stopwatches/{id}/lap        - Record a lap
  POST /stopwatches/{id}/stop       - Stop a stopwatch
  POST /stopwatches/{id}/reset      - Reset a stopwatch
  GET  /stopwatches/{id}/laps       - Laps as json, csv or text (?format=)
  GET  /ws                          - WebSocket command channel
  GET  /metrics                     - Prometheus metrics

Examples:
  lapwatch serve
  lapwatch serve --port 8080 --preload build,test
  lapwatch serve --host 0.0.0.0 --rate-limit-enabled --requests-per-minute 120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := resolveServeOptions(cmd, c.config.Server)
			if opts.Port < 1 || opts.Port > 65535 {
				return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", opts.Port)
			}

			httpServer, _, err := buildServer(opts, clock.System)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", httpServer.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, httpServer, ln, time.Duration(opts.ShutdownTimeout)*time.Second)
		},
	}

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 600, "maximum requests per minute per client")
	serveCmd.Flags().StringSlice("preload", nil, "comma-separated stopwatch ids to create at startup")
	return serveCmd
}

// resolveServeOptions applies explicitly set flags on top of the loaded configuration.
func resolveServeOptions(cmd *cobra.Command, cfg config.ServerConfig) serveOptions {
	opts := serveOptions{ServerConfig: cfg}
	flags := cmd.Flags()

	if flags.Changed("host") {
		opts.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		opts.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		opts.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("timeout") {
		opts.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		opts.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("rate-limit-enabled") {
		opts.RateLimitEnabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		opts.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("preload") {
		opts.Preload, _ = flags.GetStringSlice("preload")
	}
	return opts
}

// buildServer creates the registry, registers the preloaded stopwatches and
// wires the API into an http.Server.
func buildServer(opts serveOptions, clk clock.Clock) (*http.Server, *server.Server, error) {
	reg := stopwatch.NewRegistry(clk)
	for _, id := range opts.Preload {
		if _, err := reg.Create(id); err != nil {
			return nil, nil, fmt.Errorf("failed to preload stopwatch: %w", err)
		}
	}

	api := server.NewServer(server.Config{
		Host:              opts.Host,
		Port:              opts.Port,
		CORSOrigin:        opts.CORSOrigin,
		TimeoutSec:        opts.TimeoutSec,
		RateLimitEnabled:  opts.RateLimitEnabled,
		RequestsPerMinute: opts.RequestsPerMinute,
		Clock:             clk,
	}, reg)

	mux := http.NewServeMux()
	api.SetupRoutes(mux)

	timeout := time.Duration(opts.TimeoutSec) * time.Second
	return &http.Server{
		Addr:              net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}, api, nil
}

// serve runs httpServer on ln until ctx is done or the server fails, then
// shuts it down gracefully.
func serve(ctx context.Context, httpServer *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting lapwatch server", "addr", ln.Addr().String(), "version", version.String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			slog.Error("Server error", "error", serveErr)
		}
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return errors.Join(serveErr, fmt.Errorf("shutdown: %w", err))
	}

	slog.Info("Graceful shutdown completed")
	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}
