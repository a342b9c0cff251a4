package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
)

// Timer measures a named span against a clock.
type Timer struct {
	clock    clock.Clock
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string, clk clock.Clock) *Timer {
	if clk == nil {
		clk = clock.System
	}
	return &Timer{
		clock: clk,
		name:  name,
		start: clk.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = t.clock.Now().Sub(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// String returns a formatted string representation of the timer.
func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		NumGC:           m.NumGC,
	}
}

// String returns a formatted string representation of memory stats.
func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, GC: %d",
		m.AllocBytes/1024, m.TotalAllocBytes/1024, m.NumGC)
}

// Result holds the outcome of one benchmark run.
type Result struct {
	Name         string        `json:"name"`
	Iterations   int           `json:"iterations"`
	Duration     time.Duration `json:"duration_ns"`
	MemoryBefore MemoryStats   `json:"memory_before"`
	MemoryAfter  MemoryStats   `json:"memory_after"`
	Error        error         `json:"-"`
}

// PerOp returns the mean duration of one iteration.
func (r Result) PerOp() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Iterations)
}

// AllocatedBytes is the cumulative allocation during the run.
func (r Result) AllocatedBytes() uint64 {
	return r.MemoryAfter.TotalAllocBytes - r.MemoryBefore.TotalAllocBytes
}

// String returns a formatted string representation of the result.
func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, alloc: %d KB",
		r.Name, r.Iterations, r.PerOp(), r.Duration, r.AllocatedBytes()/1024)
}

// Benchmark is a named function run once per iteration.
type Benchmark struct {
	Name string
	Func func() error
}

// Suite manages multiple benchmarks.
type Suite struct {
	clock      clock.Clock
	benchmarks []Benchmark
	results    []Result
	mu         sync.Mutex
}

// NewSuite creates an empty suite timed against clk. A nil clock uses the
// system clock.
func NewSuite(clk clock.Clock) *Suite {
	if clk == nil {
		clk = clock.System
	}
	return &Suite{
		clock:      clk,
		benchmarks: make([]Benchmark, 0),
		results:    make([]Result, 0),
	}
}

// Add adds a benchmark to the suite.
func (s *Suite) Add(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks = append(s.benchmarks, Benchmark{Name: name, Func: fn})
}

// Names lists the registered benchmarks in insertion order.
func (s *Suite) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.benchmarks))
	for i, b := range s.benchmarks {
		names[i] = b.Name
	}
	return names
}

// Run runs a single benchmark with the specified number of iterations.
func (s *Suite) Run(name string, iterations int) Result {
	s.mu.Lock()
	var benchmark Benchmark
	found := false
	for _, b := range s.benchmarks {
		if b.Name == name {
			benchmark = b
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return Result{
			Name:  name,
			Error: fmt.Errorf("benchmark '%s' not found", name),
		}
	}

	return s.runBenchmark(benchmark, iterations)
}

// RunAll runs all benchmarks in the suite.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	benchmarks := append([]Benchmark(nil), s.benchmarks...)
	s.mu.Unlock()

	results := make([]Result, 0, len(benchmarks))
	for _, b := range benchmarks {
		results = append(results, s.runBenchmark(b, iterations))
	}

	s.mu.Lock()
	s.results = results
	s.mu.Unlock()
	return results
}

func (s *Suite) runBenchmark(b Benchmark, iterations int) Result {
	runtime.GC()
	memBefore := GetMemoryStats()

	timer := NewTimer(b.Name, s.clock)
	var err error
	done := 0
	for range iterations {
		if e := b.Func(); e != nil {
			err = e
			break
		}
		done++
	}
	duration := timer.Stop()

	return Result{
		Name:         b.Name,
		Iterations:   done,
		Duration:     duration,
		MemoryBefore: memBefore,
		MemoryAfter:  GetMemoryStats(),
		Error:        err,
	}
}

// Results returns the last RunAll results.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// WriteText prints one line per result.
func WriteText(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintln(w, "Benchmark Results:"); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}

type jsonResult struct {
	Result
	PerOpNs        int64  `json:"per_op_ns"`
	AllocatedBytes uint64 `json:"allocated_bytes"`
	Error          string `json:"error,omitempty"`
}

// WriteJSON prints the results as an indented JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			Result:         r,
			PerOpNs:        r.PerOp().Nanoseconds(),
			AllocatedBytes: r.AllocatedBytes(),
		}
		if r.Error != nil {
			out[i].Error = r.Error.Error()
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// NewStopwatchSuite registers the stopwatch workloads. Contended
// benchmarks fan each iteration out over workers goroutines.
func NewStopwatchSuite(workers int, clk clock.Clock) *Suite {
	if workers < 1 {
		workers = 1
	}
	s := NewSuite(clk)

	lapReg := stopwatch.NewRegistry(clk)
	shared, _ := lapReg.Create("bench-lap")
	_ = shared.Start()
	s.Add("lap", shared.Lap)

	s.Add("lap_contended", func() error {
		return fanOut(workers, shared.Lap)
	})

	cycle, _ := lapReg.Create("bench-cycle")
	s.Add("start_stop", func() error {
		if err := cycle.Start(); err != nil {
			return err
		}
		return cycle.Stop()
	})

	s.Add("snapshot", func() error {
		_ = shared.Snapshot()
		return nil
	})

	createReg := stopwatch.NewRegistry(clk)
	var seq int
	var seqMu sync.Mutex
	s.Add("registry_create", func() error {
		return fanOut(workers, func() error {
			seqMu.Lock()
			seq++
			id := "bench-" + strconv.Itoa(seq)
			seqMu.Unlock()
			_, err := createReg.Create(id)
			return err
		})
	})

	s.Add("registry_get", func() error {
		return fanOut(workers, func() error {
			_, err := lapReg.Get("bench-lap")
			return err
		})
	})

	return s
}

func fanOut(workers int, fn func() error) error {
	if workers == 1 {
		return fn()
	}
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}
