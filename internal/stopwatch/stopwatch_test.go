package stopwatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

func newFakeStopwatch(t *testing.T, id string) (*Stopwatch, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Time{})
	sw, err := NewRegistry(fake).Create(id)
	require.NoError(t, err)
	return sw, fake
}

func sum(laps []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range laps {
		total += d
	}
	return total
}

func TestStopwatch_ID(t *testing.T) {
	sw, _ := newFakeStopwatch(t, "alpha")
	assert.Equal(t, "alpha", sw.ID())
}

func TestStopwatch_InitialState(t *testing.T) {
	sw, _ := newFakeStopwatch(t, "A")

	assert.False(t, sw.IsRunning())
	laps := sw.LapTimes()
	assert.NotNil(t, laps)
	assert.Empty(t, laps)
	assert.Zero(t, sw.Elapsed())
}

func TestStopwatch_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(sw *Stopwatch) error
		op    func(sw *Stopwatch) error
	}{
		{
			name:  "lap while stopped",
			setup: func(sw *Stopwatch) error { return nil },
			op:    (*Stopwatch).Lap,
		},
		{
			name:  "stop while stopped",
			setup: func(sw *Stopwatch) error { return nil },
			op:    (*Stopwatch).Stop,
		},
		{
			name:  "start while running",
			setup: (*Stopwatch).Start,
			op:    (*Stopwatch).Start,
		},
		{
			name: "stop twice",
			setup: func(sw *Stopwatch) error {
				if err := sw.Start(); err != nil {
					return err
				}
				return sw.Stop()
			},
			op: (*Stopwatch).Stop,
		},
		{
			name: "lap after reset",
			setup: func(sw *Stopwatch) error {
				if err := sw.Start(); err != nil {
					return err
				}
				sw.Reset()
				return nil
			},
			op: (*Stopwatch).Lap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw, fake := newFakeStopwatch(t, "A")
			require.NoError(t, tt.setup(sw))
			fake.Advance(40 * ms)

			before := sw.LapTimes()
			running := sw.IsRunning()

			err := tt.op(sw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalState))
			assert.False(t, errors.Is(err, ErrInvalidArgument))
			assert.Contains(t, err.Error(), `"A"`)

			assert.Equal(t, before, sw.LapTimes())
			assert.Equal(t, running, sw.IsRunning())
		})
	}
}

func TestStopwatch_LapRecordsIntervalOnly(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	fake.Advance(100 * ms)
	require.NoError(t, sw.Lap())
	fake.Advance(30 * ms)
	require.NoError(t, sw.Lap())
	fake.Advance(70 * ms)
	require.NoError(t, sw.Lap())

	assert.Equal(t, []time.Duration{100 * ms, 30 * ms, 70 * ms}, sw.LapTimes())
	assert.True(t, sw.IsRunning())
}

func TestStopwatch_ZeroDurationLap(t *testing.T) {
	sw, _ := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	require.NoError(t, sw.Lap())
	require.NoError(t, sw.Stop())

	assert.Equal(t, []time.Duration{0, 0}, sw.LapTimes())
}

func TestStopwatch_SubMillisecondTruncation(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	fake.Advance(1500 * time.Microsecond)
	require.NoError(t, sw.Lap())
	fake.Advance(1500 * time.Microsecond)
	require.NoError(t, sw.Stop())

	// 1.5ms and 3ms on the millisecond grid are 1ms and 3ms.
	assert.Equal(t, []time.Duration{1 * ms, 2 * ms}, sw.LapTimes())
}

func TestStopwatch_StopRestartFoldsSplit(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	fake.Advance(100 * ms)
	require.NoError(t, sw.Lap())
	fake.Advance(100 * ms)
	require.NoError(t, sw.Stop())

	assert.Equal(t, []time.Duration{100 * ms, 100 * ms}, sw.LapTimes())
	assert.Equal(t, 100*ms, sw.lastStopSplit)

	// Time spent stopped is not counted.
	fake.Advance(600 * ms)
	require.NoError(t, sw.Start())
	assert.Equal(t, []time.Duration{100 * ms}, sw.LapTimes(), "restart re-opens the lap closed by stop")

	fake.Advance(50 * ms)
	require.NoError(t, sw.Stop())

	laps := sw.LapTimes()
	assert.Equal(t, []time.Duration{100 * ms, 150 * ms}, laps)
	assert.Equal(t, 250*ms, sum(laps))
	assert.Equal(t, 250*ms, sw.Elapsed())
}

func TestStopwatch_LapAfterRestartCountsSplitOnce(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	fake.Advance(40 * ms)
	require.NoError(t, sw.Stop())

	fake.Advance(time.Second)
	require.NoError(t, sw.Start())
	// Lap in the same millisecond as the restart.
	require.NoError(t, sw.Lap())
	fake.Advance(25 * ms)
	require.NoError(t, sw.Stop())

	laps := sw.LapTimes()
	assert.Equal(t, []time.Duration{40 * ms, 25 * ms}, laps)
	assert.Equal(t, 65*ms, sum(laps))
}

func TestStopwatch_SlowThinkerSequence(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "ID")
	step := func() { fake.Advance(100 * ms) }

	step()
	require.NoError(t, sw.Start())
	step()
	require.NoError(t, sw.Stop())
	fake.Advance(600 * ms)
	require.NoError(t, sw.Start())
	step()
	require.NoError(t, sw.Stop())
	step()
	require.NoError(t, sw.Start())
	step()
	require.NoError(t, sw.Lap())
	step()
	require.NoError(t, sw.Lap())
	step()
	require.NoError(t, sw.Lap())
	step()
	require.NoError(t, sw.Lap())
	step()
	require.NoError(t, sw.Stop())
	step()
	require.NoError(t, sw.Start())
	step()
	require.NoError(t, sw.Stop())

	laps := sw.LapTimes()
	assert.Equal(t, []time.Duration{300 * ms, 100 * ms, 100 * ms, 100 * ms, 200 * ms}, laps)
	assert.Equal(t, 800*ms, sum(laps))
}

func TestStopwatch_Reset(t *testing.T) {
	t.Run("from running", func(t *testing.T) {
		sw, fake := newFakeStopwatch(t, "A")
		require.NoError(t, sw.Start())
		fake.Advance(10 * ms)
		require.NoError(t, sw.Lap())
		fake.Advance(10 * ms)

		sw.Reset()

		assert.False(t, sw.IsRunning())
		assert.Empty(t, sw.LapTimes())
		assert.Zero(t, sw.Elapsed())
		require.NoError(t, sw.Start())
	})

	t.Run("from stopped", func(t *testing.T) {
		sw, fake := newFakeStopwatch(t, "A")
		require.NoError(t, sw.Start())
		fake.Advance(10 * ms)
		require.NoError(t, sw.Stop())

		sw.Reset()
		assert.Empty(t, sw.LapTimes())

		// A start after reset is a first start, not a resume.
		require.NoError(t, sw.Start())
		fake.Advance(5 * ms)
		require.NoError(t, sw.Stop())
		assert.Equal(t, []time.Duration{5 * ms}, sw.LapTimes())
	})

	t.Run("on fresh stopwatch", func(t *testing.T) {
		sw, _ := newFakeStopwatch(t, "A")
		sw.Reset()
		assert.False(t, sw.IsRunning())
		assert.Empty(t, sw.LapTimes())
	})
}

func TestStopwatch_LapTimesIsACopy(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")
	require.NoError(t, sw.Start())
	fake.Advance(10 * ms)
	require.NoError(t, sw.Lap())

	laps := sw.LapTimes()
	laps[0] = time.Hour
	_ = append(laps, time.Minute)

	assert.Equal(t, []time.Duration{10 * ms}, sw.LapTimes())

	snap := sw.Snapshot()
	snap.Laps[0] = time.Hour
	assert.Equal(t, []time.Duration{10 * ms}, sw.LapTimes())
}

func TestStopwatch_ElapsedWhileRunning(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")

	require.NoError(t, sw.Start())
	fake.Advance(30 * ms)
	require.NoError(t, sw.Stop())
	fake.Advance(time.Second)
	require.NoError(t, sw.Start())
	fake.Advance(20 * ms)

	assert.Equal(t, 50*ms, sw.Elapsed())

	snap := sw.Snapshot()
	assert.Equal(t, "A", snap.ID)
	assert.True(t, snap.Running)
	assert.Empty(t, snap.Laps)
	assert.Equal(t, 50*ms, snap.Elapsed)
}

func TestStopwatch_String(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "A")
	require.NoError(t, sw.Start())
	fake.Advance(10 * ms)
	require.NoError(t, sw.Lap())

	s := sw.String()
	assert.Contains(t, s, "id=A")
	assert.Contains(t, s, "running=true")
	assert.Contains(t, s, "10ms")
}

func TestStopwatch_RealClock(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps")
	}

	sw, err := NewRegistry(nil).Create("A")
	require.NoError(t, err)

	require.NoError(t, sw.Start())
	time.Sleep(100 * ms)
	require.NoError(t, sw.Lap())
	time.Sleep(100 * ms)
	require.NoError(t, sw.Stop())

	laps := sw.LapTimes()
	require.Len(t, laps, 2)
	assert.GreaterOrEqual(t, laps[0], 99*ms)
	assert.GreaterOrEqual(t, laps[1], 99*ms)

	require.NoError(t, sw.Start())
	time.Sleep(50 * ms)
	require.NoError(t, sw.Stop())

	laps = sw.LapTimes()
	require.Len(t, laps, 2)
	total := sum(laps)
	assert.GreaterOrEqual(t, total, 248*ms)
	assert.Less(t, total, 400*ms)
}

func TestStopwatch_ConcurrentLaps(t *testing.T) {
	sw, fake := newFakeStopwatch(t, "shared")
	require.NoError(t, sw.Start())

	const workers, lapsEach = 8, 50

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range lapsEach {
				fake.Advance(ms)
				assert.NoError(t, sw.Lap())
				_ = sw.LapTimes()
			}
		}()
	}
	wg.Wait()

	require.NoError(t, sw.Stop())
	laps := sw.LapTimes()
	assert.Len(t, laps, workers*lapsEach+1)
	assert.Equal(t, time.Duration(workers*lapsEach)*ms, sum(laps))
	for _, d := range laps {
		assert.GreaterOrEqual(t, d, time.Duration(0))
	}
}

func TestStopwatch_ConcurrentStartOnlyOneWins(t *testing.T) {
	sw, _ := newFakeStopwatch(t, "A")

	const callers = 16
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- sw.Start()
		}()
	}
	wg.Wait()
	close(errs)

	var ok, illegal int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrIllegalState):
			illegal++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, illegal)
}
