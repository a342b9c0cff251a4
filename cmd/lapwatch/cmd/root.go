package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/lapwatch/internal/config"
	"github.com/MeKo-Tech/lapwatch/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli holds the state shared by the commands of one command tree.
type cli struct {
	// Configuration file path.
	cfgFile string
	loader  *config.Loader
	config  *config.Config
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand returns a fresh lapwatch command tree. Tests build their
// own tree so that flag values do not leak between runs.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "lapwatch",
		Short: "Thread-safe stopwatches with lap recording",
		Long: `lapwatch keeps named stopwatches that record lap times and can be shared
between concurrent callers.

This tool provides:
- An HTTP and WebSocket API for creating and driving stopwatches
- A "slow thinker" demo that exercises stopwatches from many goroutines
- Lap reports as text, JSON or CSV
- Throughput benchmarks for contended stopwatches

Examples:
  lapwatch serve --port 8080 --preload build,test
  lapwatch demo --workers 4 --think 50ms --format csv
  lapwatch bench --workers 8
  lapwatch config show`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initConfig(cmd); err != nil {
				return err
			}
			setupLogging(cmd.OutOrStdout(), c.config)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _ := cmd.Flags().GetBool("version")
			if v {
				ver, commit, date := version.Info()
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "lapwatch version %s\n", ver)
				_, _ = fmt.Fprintf(out, "Commit: %s\n", commit)
				_, _ = fmt.Fprintf(out, "Date: %s\n", date)
				return nil
			}
			return cmd.Help()
		},
	}

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/lapwatch, /etc/lapwatch)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	rootCmd.AddCommand(newServeCmd(c), newDemoCmd(c), newBenchCmd(c), newConfigCmd(c))
	return rootCmd
}

// initConfig reads the config file and LAPWATCH_ variables into a viper
// instance bound to the root flags.
func (c *cli) initConfig(cmd *cobra.Command) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("verbose", flags.Lookup("verbose")); err != nil {
		return err
	}
	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return err
	}

	c.loader = config.NewLoaderWithViper(v)
	cfg, err := c.loader.LoadWithFile(c.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	c.config = cfg
	return nil
}

// setupLogging installs the JSON slog handler at the configured level.
func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
