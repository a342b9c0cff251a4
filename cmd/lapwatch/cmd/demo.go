package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/demo"
	"github.com/MeKo-Tech/lapwatch/internal/report"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/spf13/cobra"
)

func newDemoCmd(c *cli) *cobra.Command {
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the slow thinker demo",
		Long: `Run a scripted workload against real stopwatches.

Each worker starts, stops and laps its own stopwatch with a pause of --think
between steps, and records a lap on one shared stopwatch after every step.
The final laps of all stopwatches are printed as a report.

Examples:
  lapwatch demo
  lapwatch demo --workers 8 --think 10ms --format csv
  lapwatch demo --format json --output laps.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.ToDemoConfig()
			flags := cmd.Flags()
			if flags.Changed("id") {
				cfg.ID, _ = flags.GetString("id")
			}
			if flags.Changed("workers") {
				cfg.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("think") {
				cfg.Think, _ = flags.GetDuration("think")
			}

			format := c.config.Output.Format
			if flags.Changed("format") {
				format, _ = flags.GetString("format")
			}
			if format == "" {
				format = report.FormatText
			}
			if !slices.Contains(report.Formats, format) {
				return fmt.Errorf("unsupported format: %s (must be one of: %s)", format, strings.Join(report.Formats, ", "))
			}

			outputFile := c.config.Output.File
			if flags.Changed("output") {
				outputFile, _ = flags.GetString("output")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := demo.Run(ctx, stopwatch.NewRegistry(clock.System), cfg)
			if err != nil {
				return fmt.Errorf("demo failed: %w", err)
			}

			out, err := report.Format(res.Snapshots(), format)
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}

			if outputFile == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(out), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			slog.Info("Report written", "file", outputFile, "format", format)
			return nil
		},
	}

	demoCmd.Flags().String("id", "slow-thinker", "id of the shared stopwatch")
	demoCmd.Flags().Int("workers", 1, "number of concurrent workers")
	demoCmd.Flags().Duration("think", demo.DefaultConfig().Think, "pause before every step")
	demoCmd.Flags().StringP("format", "f", report.FormatText, "report format (text, json, csv)")
	demoCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	return demoCmd
}
