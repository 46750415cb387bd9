package reshape

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Table is a small row-major frame: an ordered list of column names plus one
// slice of cells per row. Query results and reshaped reports both flow through
// this shape; cells stay loosely typed until a transform coerces them.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the table carries no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Select projects the table onto the named columns, in the given order.
// A requested column that does not exist comes back as all-nil cells; that
// keeps projection total, and callers validate required columns themselves.
func (t Table) Select(columns ...string) Table {
	out := Table{Columns: columns}
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = t.ColumnIndex(name)
	}
	for _, row := range t.Rows {
		projected := make([]any, len(columns))
		for i, src := range idx {
			if src >= 0 && src < len(row) {
				projected[i] = row[src]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// Concat stacks tables on the union of their columns, aligning cells by
// column name. Cells absent from a source table are nil, mirroring how a
// dataframe concat pads mismatched frames.
func Concat(tables ...Table) Table {
	var out Table
	for _, t := range tables {
		for _, c := range t.Columns {
			if out.ColumnIndex(c) < 0 {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			aligned := make([]any, len(out.Columns))
			for i, c := range t.Columns {
				if i < len(row) {
					aligned[out.ColumnIndex(c)] = row[i]
				}
			}
			out.Rows = append(out.Rows, aligned)
		}
	}
	return out
}

// AsDecimal coerces a cell into an exact decimal value.
// Returns false for nil cells, NaN floats, and unparseable strings.
// JSON numbers decode to float64 — that is the common path.
func AsDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		return AsDecimal(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return val, true
	}
	return decimal.Zero, false
}

// AsMillis coerces a cell into a millisecond epoch timestamp.
func AsMillis(v any) (int64, bool) {
	d, ok := AsDecimal(v)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

// AsString renders a cell for string-keyed grouping and spreadsheet output.
// Time values are normalized to a plain date so downstream joins on
// week_start never compare two serializations of the same day.
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}
