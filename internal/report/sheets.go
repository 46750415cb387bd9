package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/obslab/pulse/internal/reshape"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Worksheets are created oversized so a follow-up resize is never needed.
const (
	minSheetRows = 100
	minSheetCols = 100
)

// SheetsWriter publishes tables to one Google Sheets document using a
// service-account credential file.
type SheetsWriter struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsWriter(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsWriter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// WriteTables replaces each named sheet: delete the old one if present
// (a missing sheet counts as success), create a fresh sheet sized for
// header + rows, then write everything in a single bulk update.
func (w *SheetsWriter) WriteTables(ctx context.Context, names []string, tables map[string]reshape.Table) error {
	doc, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet %s: %w", w.spreadsheetID, err)
	}

	existing := make(map[string]int64, len(doc.Sheets))
	for _, s := range doc.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = s.Properties.SheetId
		}
	}

	for _, name := range names {
		table := tables[name]

		if sheetID, ok := existing[name]; ok {
			_, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
				Requests: []*sheets.Request{{
					DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID},
				}},
			}).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to delete sheet %q: %w", name, err)
			}
		}

		rows := int64(len(table.Rows) + 1)
		if rows < minSheetRows {
			rows = minSheetRows
		}
		cols := int64(len(table.Columns))
		if cols < minSheetCols {
			cols = minSheetCols
		}

		_, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: name,
						GridProperties: &sheets.GridProperties{
							RowCount:    rows,
							ColumnCount: cols,
						},
					},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			fmt.Sprintf("'%s'!A1", name),
			&sheets.ValueRange{Values: sheetValues(table)},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}

		slog.Info("[Sheets] Exported worksheet", "sheet", name, "rows", len(table.Rows))
	}

	return nil
}
