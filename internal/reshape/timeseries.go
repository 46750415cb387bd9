package reshape

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Column layout produced by FlattenCounterSeries.
var counterSeriesColumns = []string{
	"alarm_name",
	"cumulative_count",
	"minute_increase",
	"timestamp",
	"date",
	"minute",
	"minute_from_end",
}

type longPoint struct {
	name      string
	timestamp int64
	value     float64
}

// FlattenCounterSeries converts a wide time-series snapshot (one Time column
// plus one cumulative-counter column per series) into long-format rows with
// per-interval increases.
//
// Per series group, sorted by timestamp: the first observation is discarded
// (nothing to diff against), every later row carries
// max(0, current - previous); clipping negative deltas to zero absorbs
// counter resets. minute_from_end counts down from group size to 1 so the
// most recent interval is always 1.
//
// Any structural anomaly (no Time column, empty input, all groups too short)
// yields an empty table, never an error.
func FlattenCounterSeries(t Table) Table {
	out := Table{Columns: counterSeriesColumns}

	timeIdx := t.ColumnIndex("Time")
	if timeIdx < 0 {
		timeIdx = t.ColumnIndex("time")
	}
	if timeIdx < 0 {
		if len(t.Columns) > 0 || len(t.Rows) > 0 {
			slog.Error("[Reshape] Time-series input has no time column", "columns", t.Columns)
		}
		return out
	}

	// Melt: every (timestamp, series) pair becomes one long-format point.
	// Rows with missing timestamps or non-numeric values are skipped here so
	// the delta pass only ever sees clean observations.
	var points []longPoint
	for col, name := range t.Columns {
		if col == timeIdx {
			continue
		}
		display := DisplayName(name)
		for _, row := range t.Rows {
			if col >= len(row) || timeIdx >= len(row) {
				continue
			}
			ts, ok := AsMillis(row[timeIdx])
			if !ok {
				continue
			}
			v, ok := AsDecimal(row[col])
			if !ok {
				continue
			}
			f, _ := v.Float64()
			points = append(points, longPoint{name: display, timestamp: ts, value: f})
		}
	}
	if len(points) == 0 {
		return out
	}

	// Deltas are consecutive differences within a group, so ordering by
	// (name, timestamp) must happen before the scan below.
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].name != points[j].name {
			return points[i].name < points[j].name
		}
		return points[i].timestamp < points[j].timestamp
	})

	for start := 0; start < len(points); {
		end := start
		for end < len(points) && points[end].name == points[start].name {
			end++
		}
		group := points[start:end]
		start = end

		// A single observation cannot produce a delta.
		if len(group) < 2 {
			continue
		}

		survivors := group[1:]
		for i, p := range survivors {
			prev := group[i].value // group[i] is the row before survivors[i]
			increase := p.value - prev
			if increase < 0 {
				increase = 0
			}
			ts := time.UnixMilli(p.timestamp).UTC()
			out.Rows = append(out.Rows, []any{
				p.name,
				p.value,
				increase,
				p.timestamp,
				ts.Format("2006-01-02 15:04:05"),
				ts.Format("04"),
				len(survivors) - i,
			})
		}
	}

	return out
}

// DisplayName derives a human-readable series label from a raw metric name:
// known counter affixes are stripped, underscores become spaces, and each
// word is capitalized.
func DisplayName(raw string) string {
	s := strings.TrimPrefix(raw, "alarm_total_")
	s = strings.TrimSuffix(s, "_total")
	s = strings.ReplaceAll(s, "_", " ")
	return titleCase(s)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
