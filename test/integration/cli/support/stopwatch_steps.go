package support

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/cucumber/godog"
)

var errorsByName = map[string]error{
	"invalid argument": stopwatch.ErrInvalidArgument,
	"duplicate id":     stopwatch.ErrDuplicateID,
	"illegal state":    stopwatch.ErrIllegalState,
	"not found":        stopwatch.ErrNotFound,
}

func (testCtx *TestContext) stopwatchNamed(id string) (*stopwatch.Stopwatch, error) {
	sw, err := testCtx.Registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("stopwatch %q: %w", id, err)
	}
	return sw, nil
}

// iCreateAStopwatch creates a stopwatch and fails the step on error.
func (testCtx *TestContext) iCreateAStopwatch(id string) error {
	_, err := testCtx.Registry.Create(id)
	return err
}

// iTryToCreateAStopwatch records the error instead of failing.
func (testCtx *TestContext) iTryToCreateAStopwatch(id string) error {
	_, testCtx.LastErr = testCtx.Registry.Create(id)
	return nil
}

func apply(sw *stopwatch.Stopwatch, op string) error {
	switch op {
	case "start":
		return sw.Start()
	case "stop":
		return sw.Stop()
	case "lap":
		return sw.Lap()
	case "reset":
		sw.Reset()
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func (testCtx *TestContext) iApplyOperation(op, id string) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}
	return apply(sw, op)
}

func (testCtx *TestContext) iTryToApplyOperation(op, id string) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		testCtx.LastErr = err
		return nil
	}
	testCtx.LastErr = apply(sw, op)
	return nil
}

func (testCtx *TestContext) iLookUpStopwatch(id string) error {
	_, testCtx.LastErr = testCtx.Registry.Get(id)
	return nil
}

func (testCtx *TestContext) millisecondsPass(ms int) error {
	testCtx.Clock.Advance(time.Duration(ms) * time.Millisecond)
	return nil
}

func (testCtx *TestContext) theErrorShouldBe(name string) error {
	want, ok := errorsByName[name]
	if !ok {
		return fmt.Errorf("unknown error name %q", name)
	}
	if !errors.Is(testCtx.LastErr, want) {
		return fmt.Errorf("expected error %q, got %v", name, testCtx.LastErr)
	}
	return nil
}

func (testCtx *TestContext) thereShouldBeNoError() error {
	if testCtx.LastErr != nil {
		return fmt.Errorf("expected no error, got %v", testCtx.LastErr)
	}
	return nil
}

func parseMillis(list string) ([]time.Duration, error) {
	out := []time.Duration{}
	if strings.TrimSpace(list) == "" {
		return out, nil
	}
	for _, part := range strings.Split(list, ",") {
		ms, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid lap %q: %w", part, err)
		}
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out, nil
}

func (testCtx *TestContext) stopwatchShouldHaveLaps(id, list string) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}
	want, err := parseMillis(list)
	if err != nil {
		return err
	}
	if got := sw.LapTimes(); !slices.Equal(got, want) {
		return fmt.Errorf("stopwatch %q: expected laps %v, got %v", id, want, got)
	}
	return nil
}

func (testCtx *TestContext) stopwatchShouldHaveLapCount(id string, n int) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}
	if got := len(sw.LapTimes()); got != n {
		return fmt.Errorf("stopwatch %q: expected %d laps, got %d", id, n, got)
	}
	return nil
}

func (testCtx *TestContext) lapsShouldSumTo(id string, ms int) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}
	var total time.Duration
	for _, d := range sw.LapTimes() {
		total += d
	}
	if want := time.Duration(ms) * time.Millisecond; total != want {
		return fmt.Errorf("stopwatch %q: expected laps to sum to %v, got %v", id, want, total)
	}
	return nil
}

func (testCtx *TestContext) stopwatchShouldBe(id, state string) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}
	if running := sw.IsRunning(); running != (state == "running") {
		return fmt.Errorf("stopwatch %q: expected %s, running=%t", id, state, running)
	}
	return nil
}

func (testCtx *TestContext) theRegistryShouldContain(n int) error {
	if got := testCtx.Registry.Len(); got != n {
		return fmt.Errorf("expected %d stopwatches, got %d", n, got)
	}
	return nil
}

func (testCtx *TestContext) theRegistryShouldList(list string) error {
	var got []string
	for _, sw := range testCtx.Registry.List() {
		got = append(got, sw.ID())
	}
	want := strings.Split(list, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("expected registry %v, got %v", want, got)
	}
	return nil
}

func (testCtx *TestContext) goroutinesCreateConcurrently(n int, id string) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	testCtx.SuccessfulCreates, testCtx.FailedCreates = 0, 0
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testCtx.Registry.Create(id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				testCtx.SuccessfulCreates++
			case errors.Is(err, stopwatch.ErrDuplicateID):
				testCtx.FailedCreates++
			}
		}()
	}
	wg.Wait()
	return nil
}

func (testCtx *TestContext) creationsShouldSucceed(n int) error {
	if testCtx.SuccessfulCreates != n {
		return fmt.Errorf("expected %d successful creations, got %d (%d duplicates)",
			n, testCtx.SuccessfulCreates, testCtx.FailedCreates)
	}
	return nil
}

func (testCtx *TestContext) goroutinesRecordLaps(n, laps int, id string) error {
	sw, err := testCtx.stopwatchNamed(id)
	if err != nil {
		return err
	}

	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range laps {
				if err := sw.Lap(); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

// RegisterStopwatchSteps registers stopwatch and registry step definitions.
func (testCtx *TestContext) RegisterStopwatchSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I create a stopwatch "([^"]*)"$`, testCtx.iCreateAStopwatch)
	sc.Step(`^I try to create a stopwatch "([^"]*)"$`, testCtx.iTryToCreateAStopwatch)
	sc.Step(`^I (start|stop|lap|reset) stopwatch "([^"]*)"$`, testCtx.iApplyOperation)
	sc.Step(`^I try to (start|stop|lap) stopwatch "([^"]*)"$`, testCtx.iTryToApplyOperation)
	sc.Step(`^I look up stopwatch "([^"]*)"$`, testCtx.iLookUpStopwatch)
	sc.Step(`^(\d+) ms pass(?:es)?$`, testCtx.millisecondsPass)
	sc.Step(`^the error should be "([^"]*)"$`, testCtx.theErrorShouldBe)
	sc.Step(`^there should be no error$`, testCtx.thereShouldBeNoError)
	sc.Step(`^stopwatch "([^"]*)" should have laps "([^"]*)"$`, testCtx.stopwatchShouldHaveLaps)
	sc.Step(`^stopwatch "([^"]*)" should have (\d+) laps?$`, testCtx.stopwatchShouldHaveLapCount)
	sc.Step(`^the laps of stopwatch "([^"]*)" should sum to (\d+) ms$`, testCtx.lapsShouldSumTo)
	sc.Step(`^stopwatch "([^"]*)" should be (running|stopped)$`, testCtx.stopwatchShouldBe)
	sc.Step(`^the registry should contain (\d+) stopwatch(?:es)?$`, testCtx.theRegistryShouldContain)
	sc.Step(`^the registry should list "([^"]*)"$`, testCtx.theRegistryShouldList)
	sc.Step(`^(\d+) goroutines create stopwatch "([^"]*)" concurrently$`, testCtx.goroutinesCreateConcurrently)
	sc.Step(`^exactly (\d+) creations? should succeed$`, testCtx.creationsShouldSucceed)
	sc.Step(`^(\d+) goroutines each record (\d+) laps on stopwatch "([^"]*)"$`, testCtx.goroutinesRecordLaps)
}
