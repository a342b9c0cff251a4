package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/demo"
	"github.com/MeKo-Tech/lapwatch/internal/report"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	d := demo.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			TimeoutSec:        30,
			ShutdownTimeout:   10,
			RateLimitEnabled:  false,
			RequestsPerMinute: 600,
			Preload:           []string{},
		},
		Demo: DemoConfig{
			ID:      d.ID,
			Workers: d.Workers,
			ThinkMs: int(d.Think / time.Millisecond),
		},
		Output: OutputConfig{
			Format: report.FormatText,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if err := c.validateBasicEnums(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateDemo()
}

// ToDemoConfig converts the config to the demo driver configuration.
func (c *Config) ToDemoConfig() demo.Config {
	cfg := demo.DefaultConfig()
	if c.Demo.ID != "" {
		cfg.ID = c.Demo.ID
	}
	if c.Demo.Workers > 0 {
		cfg.Workers = c.Demo.Workers
	}
	cfg.Think = time.Duration(c.Demo.ThinkMs) * time.Millisecond
	return cfg
}

func (c *Config) validateBasicEnums() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(report.Formats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(report.Formats, ", "))
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimitEnabled && c.Server.RequestsPerMinute <= 0 {
		return fmt.Errorf("invalid requests per minute: %d (must be positive when rate limiting is enabled)",
			c.Server.RequestsPerMinute)
	}

	seen := make(map[string]struct{}, len(c.Server.Preload))
	for _, id := range c.Server.Preload {
		if id == "" {
			return fmt.Errorf("invalid preload list: empty stopwatch id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("invalid preload list: duplicate stopwatch id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c *Config) validateDemo() error {
	if c.Demo.ID == "" {
		return fmt.Errorf("invalid demo id: must not be empty")
	}
	if c.Demo.Workers <= 0 {
		return fmt.Errorf("invalid demo workers: %d (must be positive)", c.Demo.Workers)
	}
	if c.Demo.ThinkMs < 0 {
		return fmt.Errorf("invalid demo think time: %dms (must not be negative)", c.Demo.ThinkMs)
	}
	return nil
}
