// Package report renders stopwatch snapshots as text, JSON or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the accepted values for Format.
var Formats = []string{FormatText, FormatJSON, FormatCSV}

// Lap is a single recorded lap in milliseconds.
type Lap struct {
	Index            int   `json:"index"`
	Millis           int64 `json:"ms"`
	CumulativeMillis int64 `json:"cumulative_ms"`
}

// Entry is the serializable view of one stopwatch.
type Entry struct {
	ID            string `json:"id"`
	Running       bool   `json:"running"`
	Laps          []Lap  `json:"laps"`
	TotalMillis   int64  `json:"total_ms"`
	ElapsedMillis int64  `json:"elapsed_ms"`
}

// FromSnapshot converts a snapshot into its millisecond representation.
// TotalMillis covers recorded laps only; ElapsedMillis includes the open lap.
func FromSnapshot(s stopwatch.Snapshot) Entry {
	e := Entry{
		ID:            s.ID,
		Running:       s.Running,
		Laps:          make([]Lap, len(s.Laps)),
		ElapsedMillis: s.Elapsed.Milliseconds(),
	}
	var cumulative time.Duration
	for i, d := range s.Laps {
		cumulative += d
		e.Laps[i] = Lap{
			Index:            i + 1,
			Millis:           d.Milliseconds(),
			CumulativeMillis: cumulative.Milliseconds(),
		}
	}
	e.TotalMillis = cumulative.Milliseconds()
	return e
}

// Format renders snapshots in the given format. Unknown formats fall back to
// text.
func Format(snaps []stopwatch.Snapshot, format string) (string, error) {
	entries := make([]Entry, len(snaps))
	for i, s := range snaps {
		entries[i] = FromSnapshot(s)
	}

	switch format {
	case FormatJSON:
		return formatJSON(entries)
	case FormatCSV:
		return formatCSV(entries)
	default:
		return formatText(entries), nil
	}
}

// ContentType returns the HTTP content type for a format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

func formatJSON(entries []Entry) (string, error) {
	out := struct {
		Stopwatches []Entry `json:"stopwatches"`
	}{Stopwatches: entries}

	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func formatCSV(entries []Entry) (string, error) {
	rows := [][]string{{"id", "running", "lap", "lap_ms", "cumulative_ms"}}

	for _, e := range entries {
		running := strconv.FormatBool(e.Running)
		if len(e.Laps) == 0 {
			rows = append(rows, []string{e.ID, running, "0", "0", "0"})
			continue
		}
		for _, lap := range e.Laps {
			rows = append(rows, []string{
				e.ID,
				running,
				strconv.Itoa(lap.Index),
				strconv.FormatInt(lap.Millis, 10),
				strconv.FormatInt(lap.CumulativeMillis, 10),
			})
		}
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatText(entries []Entry) string {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		state := "stopped"
		if e.Running {
			state = "running"
		}
		sb.WriteString(p.Sprintf("%s (%s): %d lap(s), total %d ms, elapsed %d ms\n",
			e.ID, state, len(e.Laps), e.TotalMillis, e.ElapsedMillis))
		for _, lap := range e.Laps {
			sb.WriteString(p.Sprintf("  #%d %d ms (cumulative %d ms)\n",
				lap.Index, lap.Millis, lap.CumulativeMillis))
		}
	}
	return sb.String()
}
