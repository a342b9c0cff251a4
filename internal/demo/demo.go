// Package demo drives stopwatches through a scripted "slow thinker" workload:
// a worker pauses between operations while other workers share one stopwatch
// and record laps on it concurrently.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
)

// Op is a stopwatch operation performed by a Step.
type Op string

// Script operations.
const (
	OpStart Op = "start"
	OpStop  Op = "stop"
	OpLap   Op = "lap"
)

// Step pauses for Pause think intervals and then performs Op.
type Step struct {
	Pause int
	Op    Op
}

// SlowThinkerScript starts and stops the watch a few times and records four
// laps in between. Every interval is a multiple of the think time.
var SlowThinkerScript = []Step{
	{Pause: 1, Op: OpStart},
	{Pause: 1, Op: OpStop},
	{Pause: 6, Op: OpStart},
	{Pause: 1, Op: OpStop},
	{Pause: 1, Op: OpStart},
	{Pause: 1, Op: OpLap},
	{Pause: 1, Op: OpLap},
	{Pause: 1, Op: OpLap},
	{Pause: 1, Op: OpLap},
	{Pause: 1, Op: OpStop},
	{Pause: 1, Op: OpStart},
	{Pause: 1, Op: OpStop},
}

// Config controls a demo run.
type Config struct {
	// ID names the shared stopwatch; worker stopwatches are ID-1..ID-n.
	ID      string
	Workers int
	Think   time.Duration
	Script  []Step

	// Sleep waits for d. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a single-worker run with 100ms think time.
func DefaultConfig() Config {
	return Config{
		ID:      "slow-thinker",
		Workers: 1,
		Think:   100 * time.Millisecond,
		Script:  SlowThinkerScript,
	}
}

// Result holds the final state of every stopwatch used by a run.
type Result struct {
	Shared  stopwatch.Snapshot
	Workers []stopwatch.Snapshot
}

// Snapshots returns the shared snapshot followed by the worker snapshots.
func (r *Result) Snapshots() []stopwatch.Snapshot {
	out := make([]stopwatch.Snapshot, 0, len(r.Workers)+1)
	out = append(out, r.Shared)
	return append(out, r.Workers...)
}

type workerResult struct {
	index int
	snap  stopwatch.Snapshot
	err   error
}

// Run registers the shared stopwatch and one stopwatch per worker in reg and
// plays the script on every worker concurrently. Each worker also laps the
// shared stopwatch after every step.
func Run(ctx context.Context, reg *stopwatch.Registry, cfg Config) (*Result, error) {
	if reg == nil {
		return nil, errors.New("demo: registry is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if len(cfg.Script) == 0 {
		cfg.Script = SlowThinkerScript
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	shared, err := reg.Create(cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("demo: create shared stopwatch: %w", err)
	}

	watches := make([]*stopwatch.Stopwatch, cfg.Workers)
	for i := range watches {
		watches[i], err = reg.Create(fmt.Sprintf("%s-%d", cfg.ID, i+1))
		if err != nil {
			return nil, fmt.Errorf("demo: create worker stopwatch: %w", err)
		}
	}

	if err := shared.Start(); err != nil {
		return nil, fmt.Errorf("demo: start shared stopwatch: %w", err)
	}
	cfg.Logger.Info("Demo started", "id", cfg.ID, "workers", cfg.Workers, "think", cfg.Think.String())

	results := make(chan workerResult, cfg.Workers)
	for i, sw := range watches {
		go func() {
			err := think(ctx, cfg, sw, shared)
			results <- workerResult{index: i, snap: sw.Snapshot(), err: err}
		}()
	}

	res := &Result{Workers: make([]stopwatch.Snapshot, cfg.Workers)}
	var firstErr error
	for range cfg.Workers {
		r := <-results
		res.Workers[r.index] = r.snap
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("worker %d: %w", r.index+1, r.err)
		}
	}

	if err := shared.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("demo: stop shared stopwatch: %w", err)
	}
	res.Shared = shared.Snapshot()

	if firstErr != nil {
		return res, firstErr
	}
	cfg.Logger.Info("Demo finished", "id", cfg.ID, "shared_laps", len(res.Shared.Laps))
	return res, nil
}

// think plays the script on sw and laps shared after each step.
func think(ctx context.Context, cfg Config, sw, shared *stopwatch.Stopwatch) error {
	for _, step := range cfg.Script {
		if err := cfg.Sleep(ctx, time.Duration(step.Pause)*cfg.Think); err != nil {
			return err
		}
		if err := apply(sw, step.Op); err != nil {
			return err
		}
		if err := shared.Lap(); err != nil {
			return err
		}
		cfg.Logger.Info("Lap times", "id", sw.ID(), "op", string(step.Op), "laps", sw.LapTimes())
	}
	return nil
}

func apply(sw *stopwatch.Stopwatch, op Op) error {
	switch op {
	case OpStart:
		return sw.Start()
	case OpStop:
		return sw.Stop()
	case OpLap:
		return sw.Lap()
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
