package seed

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestStore_ReplaceDeletesThenBulkInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	week := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	point := SeriesPoint{
		RecordedAt: day,
		Category:   "general",
		Metric:     "views",
		Count:      2100,
		WeekStart:  week,
		WeekNumber: 23,
	}

	copyStmt := regexp.QuoteMeta(pq.CopyIn("views_edits", seriesColumns...))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM views_edits")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(copyStmt)
	mock.ExpectExec(copyStmt).
		WithArgs(day, "general", "views", 2100, week, 23).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Closing exec with no args flushes the COPY stream.
	mock.ExpectExec(copyStmt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Replace(context.Background(), []SeriesPoint{point}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReplaceRollsBackOnDeleteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM views_edits")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err = store.Replace(context.Background(), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WeeklySummaryRenumbersWeeks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	week1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryWeeklySummary)).WillReturnRows(
		sqlmock.NewRows([]string{"week_start", "week_number", "metric", "category", "total_count"}).
			AddRow(week1, 1, "edits", "internal", int64(5)).
			AddRow(week1, 1, "views", "general", int64(10)).
			AddRow(week2, 2, "views", "general", int64(20)),
	)

	table, err := store.WeeklySummary(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, []string{"week_start", "week_number", "metric", "category", "total_count"}, table.Columns)
	require.Len(t, table.Rows, 3)
	require.Equal(t, []any{"2024-06-01", 1, "edits", "internal", int64(5)}, table.Rows[0])
	require.Equal(t, []any{"2024-06-08", 2, "views", "general", int64(20)}, table.Rows[2])
}
