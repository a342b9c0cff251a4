package report

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshots() []stopwatch.Snapshot {
	return []stopwatch.Snapshot{
		{
			ID:      "A",
			Running: false,
			Laps:    []time.Duration{100 * time.Millisecond, 1500 * time.Millisecond},
			Elapsed: 1600 * time.Millisecond,
		},
		{
			ID:      "B",
			Running: true,
			Laps:    []time.Duration{},
			Elapsed: 20 * time.Millisecond,
		},
	}
}

func TestFromSnapshot(t *testing.T) {
	e := FromSnapshot(sampleSnapshots()[0])

	assert.Equal(t, "A", e.ID)
	assert.False(t, e.Running)
	require.Len(t, e.Laps, 2)
	assert.Equal(t, Lap{Index: 1, Millis: 100, CumulativeMillis: 100}, e.Laps[0])
	assert.Equal(t, Lap{Index: 2, Millis: 1500, CumulativeMillis: 1600}, e.Laps[1])
	assert.Equal(t, int64(1600), e.TotalMillis)
	assert.Equal(t, int64(1600), e.ElapsedMillis)
}

func TestFormat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, err := Format(sampleSnapshots(), FormatJSON)
		require.NoError(t, err)

		var decoded struct {
			Stopwatches []Entry `json:"stopwatches"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Len(t, decoded.Stopwatches, 2)
		assert.Equal(t, "B", decoded.Stopwatches[1].ID)
		assert.True(t, decoded.Stopwatches[1].Running)
		assert.Empty(t, decoded.Stopwatches[1].Laps)
	})

	t.Run("csv", func(t *testing.T) {
		out, err := Format(sampleSnapshots(), FormatCSV)
		require.NoError(t, err)

		rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"id", "running", "lap", "lap_ms", "cumulative_ms"}, rows[0])
		assert.Equal(t, []string{"A", "false", "2", "1500", "1600"}, rows[2])
		assert.Equal(t, []string{"B", "true", "0", "0", "0"}, rows[3])
	})

	t.Run("text groups thousands", func(t *testing.T) {
		out, err := Format(sampleSnapshots(), FormatText)
		require.NoError(t, err)

		assert.Contains(t, out, "A (stopped): 2 lap(s), total 1,600 ms")
		assert.Contains(t, out, "#2 1,500 ms (cumulative 1,600 ms)")
		assert.Contains(t, out, "B (running): 0 lap(s)")
	})

	t.Run("unknown format falls back to text", func(t *testing.T) {
		out, err := Format(sampleSnapshots(), "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "A (stopped)")
	})

	t.Run("no snapshots", func(t *testing.T) {
		out, err := Format(nil, FormatText)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType(FormatJSON))
	assert.Equal(t, "text/csv", ContentType(FormatCSV))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(FormatText))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(""))
}
