//nolint:lll
package config

// Config represents the complete configuration for the lapwatch application.
// It covers every command (serve, demo, config) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Demo driver configuration (for demo command)
	Demo DemoConfig `mapstructure:"demo" yaml:"demo" json:"demo"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting
	RateLimitEnabled  bool `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`

	// Stopwatch ids registered at startup
	Preload []string `mapstructure:"preload" yaml:"preload" json:"preload"`
}

// DemoConfig contains settings for the slow thinker demo.
type DemoConfig struct {
	ID      string `mapstructure:"id" yaml:"id" json:"id"`
	Workers int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	ThinkMs int    `mapstructure:"think_ms" yaml:"think_ms" json:"think_ms"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}
