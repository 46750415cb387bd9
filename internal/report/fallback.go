package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/obslab/pulse/internal/reshape"
	"github.com/xuri/excelize/v2"
)

// ExcelWriter is the local fallback destination: one .xlsx workbook with a
// sheet per table, written when the spreadsheet service is unreachable.
type ExcelWriter struct {
	path string
}

func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

func (w *ExcelWriter) WriteTables(ctx context.Context, names []string, tables map[string]reshape.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		for rowIdx, row := range sheetValues(tables[name]) {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("failed to address row %d in %q: %w", rowIdx+1, name, err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d in %q: %w", rowIdx+1, name, err)
			}
		}
	}

	// Drop the workbook's default sheet so only report sheets remain.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}

	slog.Info("[Fallback] Wrote local workbook", "path", w.path, "sheets", len(names))
	return nil
}
