package reshape

import (
	"log/slog"
	"sort"
	"time"
)

// Per-category panel tables expose one column per metric.
var panelMetricColumns = []string{"Views", "Edits"}

type categorySeries struct {
	// metric name (lower-cased) → week_start → value
	values map[string]map[string]int64
	weeks  map[string]struct{}
}

// CombineCategoryTables merges the "general" and "internal" weekly panel
// tables into one long-format report with columns
// [week_start, metric, general, internal].
//
// The join on week_start is an outer join: a week present on only one side
// still produces a row, with the missing side reported as 0. Cells that do
// not coerce to a number also default to 0. Rows are ordered by
// (week_start, metric) for deterministic output.
//
// If either table is missing its time column or a metric column, the merge
// cannot be keyed and an empty table is returned.
func CombineCategoryTables(general, internal Table) Table {
	out := Table{}

	gen, ok := extractCategorySeries(general, "general")
	if !ok {
		return out
	}
	intl, ok := extractCategorySeries(internal, "internal")
	if !ok {
		return out
	}

	weekSet := make(map[string]struct{})
	for w := range gen.weeks {
		weekSet[w] = struct{}{}
	}
	for w := range intl.weeks {
		weekSet[w] = struct{}{}
	}
	if len(weekSet) == 0 {
		return out
	}

	weeks := make([]string, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	out.Columns = []string{"week_start", "metric", "general", "internal"}
	for _, week := range weeks {
		for _, metric := range []string{"edits", "views"} {
			out.Rows = append(out.Rows, []any{
				week,
				metric,
				gen.values[metric][week],
				intl.values[metric][week],
			})
		}
	}
	return out
}

func extractCategorySeries(t Table, label string) (categorySeries, bool) {
	timeIdx := t.ColumnIndex("time")
	if timeIdx < 0 {
		timeIdx = t.ColumnIndex("Time")
	}
	if timeIdx < 0 {
		timeIdx = t.ColumnIndex("week_start")
	}
	if timeIdx < 0 {
		slog.Warn("[Reshape] Category table has no time column", "category", label, "columns", t.Columns)
		return categorySeries{}, false
	}

	metricIdx := make(map[string]int, len(panelMetricColumns))
	for _, m := range panelMetricColumns {
		idx := t.ColumnIndex(m)
		if idx < 0 {
			slog.Warn("[Reshape] Category table missing metric column",
				"category", label, "metric", m, "columns", t.Columns)
			return categorySeries{}, false
		}
		metricIdx[m] = idx
	}

	s := categorySeries{
		values: make(map[string]map[string]int64),
		weeks:  make(map[string]struct{}),
	}
	for _, row := range t.Rows {
		week := weekLabel(cell(row, timeIdx))
		if week == "" {
			continue
		}
		s.weeks[week] = struct{}{}
		for _, m := range panelMetricColumns {
			key := "views"
			if m == "Edits" {
				key = "edits"
			}
			if s.values[key] == nil {
				s.values[key] = make(map[string]int64)
			}
			if d, ok := AsDecimal(cell(row, metricIdx[m])); ok {
				s.values[key][week] += d.IntPart()
			}
		}
	}
	return s, true
}

// weekLabel normalizes a week_start cell to "YYYY-MM-DD". Grafana table
// frames carry dates as millisecond epochs; direct SQL rows carry time.Time
// or preformatted strings.
func weekLabel(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if len(val) >= 10 {
			return val[:10]
		}
		return val
	case time.Time:
		return val.Format("2006-01-02")
	default:
		if ms, ok := AsMillis(v); ok {
			return time.UnixMilli(ms).UTC().Format("2006-01-02")
		}
		return ""
	}
}
