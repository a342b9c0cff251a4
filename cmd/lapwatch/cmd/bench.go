package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/lapwatch/internal/benchmark"
	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/spf13/cobra"
)

func newBenchCmd(_ *cli) *cobra.Command {
	benchCmd := &cobra.Command{
		Use:   "bench [name...]",
		Short: "Measure stopwatch and registry throughput",
		Long: `Run micro benchmarks against the stopwatch and registry, optionally
with several goroutines contending for the same instance.

Examples:
  lapwatch bench
  lapwatch bench lap lap_contended --workers 8 --iterations 10000
  lapwatch bench --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			iterations, _ := cmd.Flags().GetInt("iterations")
			workers, _ := cmd.Flags().GetInt("workers")
			format, _ := cmd.Flags().GetString("format")

			if iterations < 1 {
				return fmt.Errorf("iterations must be positive, got %d", iterations)
			}
			if workers < 1 {
				return fmt.Errorf("workers must be positive, got %d", workers)
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format: %s (must be one of: text, json)", format)
			}

			suite := benchmark.NewStopwatchSuite(workers, clock.System)
			slog.Debug("Running benchmarks", "iterations", iterations, "workers", workers)

			var results []benchmark.Result
			if len(args) == 0 {
				results = suite.RunAll(iterations)
			} else {
				for _, name := range args {
					results = append(results, suite.Run(name, iterations))
				}
			}

			for _, r := range results {
				if r.Error != nil {
					return fmt.Errorf("benchmark %s failed: %w", r.Name, r.Error)
				}
			}

			if format == "json" {
				return benchmark.WriteJSON(cmd.OutOrStdout(), results)
			}
			return benchmark.WriteText(cmd.OutOrStdout(), results)
		},
	}

	benchCmd.Flags().IntP("iterations", "n", 1000, "iterations per benchmark")
	benchCmd.Flags().Int("workers", 4, "goroutines used by contended benchmarks")
	benchCmd.Flags().StringP("format", "f", "text", "output format (text, json)")

	return benchCmd
}
