package reshape

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
)

type pivotKey struct {
	weekStart string
	metric    string
}

// PivotWeekly pivots grouped relational rows into a wide weekly report.
//
// Input requires columns week_start, metric, category and total_count; any
// extra columns (week_number and friends) ride along unused. Rows are grouped
// by (week_start, metric), categories spread into one column each, and
// duplicate (week, metric, category) rows are summed rather than overwritten —
// upstream joins may legitimately produce more than one row per combination.
// Combinations with no input row come out as 0.
//
// Shape violations — a missing required column, or a total_count cell that
// does not coerce to a number — yield an empty table, never an error. Rows
// with a blank grouping key are dropped individually and counted.
func PivotWeekly(t Table) Table {
	out := Table{}

	weekIdx := t.ColumnIndex("week_start")
	metricIdx := t.ColumnIndex("metric")
	categoryIdx := t.ColumnIndex("category")
	totalIdx := t.ColumnIndex("total_count")
	if weekIdx < 0 || metricIdx < 0 || categoryIdx < 0 || totalIdx < 0 {
		if len(t.Columns) > 0 || len(t.Rows) > 0 {
			slog.Error("[Reshape] Weekly pivot input missing required columns",
				"columns", t.Columns)
		}
		return out
	}
	if t.Empty() {
		return out
	}

	sums := make(map[pivotKey]map[string]decimal.Decimal)
	categorySet := make(map[string]struct{})
	dropped := 0

	for _, row := range t.Rows {
		week := AsString(cell(row, weekIdx))
		metric := AsString(cell(row, metricIdx))
		category := AsString(cell(row, categoryIdx))
		if week == "" || metric == "" || category == "" {
			dropped++
			continue
		}

		total, ok := AsDecimal(cell(row, totalIdx))
		if !ok {
			slog.Error("[Reshape] Weekly pivot total_count is not numeric",
				"week_start", week, "metric", metric, "category", category,
				"value", cell(row, totalIdx))
			return Table{}
		}

		key := pivotKey{weekStart: week, metric: metric}
		if sums[key] == nil {
			sums[key] = make(map[string]decimal.Decimal)
		}
		sums[key][category] = sums[key][category].Add(total)
		categorySet[category] = struct{}{}
	}

	if dropped > 0 {
		slog.Warn("[Reshape] Dropped weekly rows with missing grouping keys", "count", dropped)
	}
	if len(sums) == 0 {
		return out
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	keys := make([]pivotKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].weekStart != keys[j].weekStart {
			return keys[i].weekStart < keys[j].weekStart
		}
		return keys[i].metric < keys[j].metric
	})

	out.Columns = append([]string{"week_start", "metric"}, categories...)
	for _, k := range keys {
		row := []any{k.weekStart, k.metric}
		for _, c := range categories {
			row = append(row, sums[k][c].IntPart())
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func cell(row []any, idx int) any {
	if idx >= len(row) {
		return nil
	}
	return row[idx]
}
