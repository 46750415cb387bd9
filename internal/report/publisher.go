package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/obslab/pulse/internal/reshape"
)

// Destination sheet names. Fixed so every run replaces the previous report
// rather than accumulating sheets.
const (
	SheetAlarms        = "Alarms Dashboard"
	SheetViewsAndEdits = "Views and Edits"
)

// SheetWriter writes named tables to one spreadsheet destination, replacing
// any same-named sheets.
type SheetWriter interface {
	WriteTables(ctx context.Context, names []string, tables map[string]reshape.Table) error
}

// Publisher routes tables to the spreadsheet service, falling back to a
// local file when the service cannot be reached. The fallback is
// unconditional on any primary failure; only a fallback failure is fatal.
type Publisher struct {
	primary  SheetWriter
	fallback SheetWriter
}

func NewPublisher(primary, fallback SheetWriter) *Publisher {
	return &Publisher{primary: primary, fallback: fallback}
}

// Publish writes all tables in deterministic (sorted) sheet order.
func (p *Publisher) Publish(ctx context.Context, tables map[string]reshape.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to publish")
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	if p.primary != nil {
		err := p.primary.WriteTables(ctx, names, tables)
		if err == nil {
			slog.Info("[Publisher] Exported tables to spreadsheet service", "sheets", names)
			return nil
		}
		slog.Error("[Publisher] Spreadsheet service export failed, falling back to local file", "error", err)
	} else {
		slog.Warn("[Publisher] Spreadsheet service not configured, using local file")
	}

	if err := p.fallback.WriteTables(ctx, names, tables); err != nil {
		return fmt.Errorf("fallback export failed: %w", err)
	}
	slog.Info("[Publisher] Exported tables to local fallback file", "sheets", names)
	return nil
}

// sheetValues renders a table as header + data rows for a bulk write.
// Every cell passes through AsString-style date normalization only when it
// is a time value; numbers are written as-is.
func sheetValues(t reshape.Table) [][]any {
	values := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	values = append(values, header)

	for _, row := range t.Rows {
		out := make([]any, len(row))
		for i, cell := range row {
			out[i] = exportCell(cell)
		}
		values = append(values, out)
	}
	return values
}

// exportCell coerces date-like cells to strings so the spreadsheet backend
// never applies its own date serialization.
func exportCell(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, float64, float32, int, int32, int64, bool:
		return v
	default:
		return reshape.AsString(v)
	}
}
