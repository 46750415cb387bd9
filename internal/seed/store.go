package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/obslab/pulse/internal/reshape"
)

const connectPingTimeout = 5 * time.Second

// Weekly summary for the report: rank the six most recent distinct
// week_start values and renumber them 1..6 by ascending week_start. The
// stored calendar week number is deliberately ignored — the report always
// shows "weeks 1-6 of the covered window".
const queryWeeklySummary = `
	WITH recent_weeks AS (
		SELECT DISTINCT week_start
		FROM views_edits
		ORDER BY week_start DESC
		LIMIT 6
	), numbered AS (
		SELECT week_start,
		       ROW_NUMBER() OVER (ORDER BY week_start ASC) AS week_number
		FROM recent_weeks
	)
	SELECT n.week_start, n.week_number, v.metric, v.category, SUM(v.count) AS total_count
	FROM views_edits v
	JOIN numbered n ON v.week_start = n.week_start
	GROUP BY n.week_start, n.week_number, v.metric, v.category
	ORDER BY n.week_start, v.metric, v.category
`

var seriesColumns = []string{"recorded_at", "category", "metric", "count", "week_start", "week_number"}

// Store is the Postgres adapter for the synthetic views/edits series.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and configures the connection pool. The initial
// ping is skipped here — the seeder probes readiness separately with its own
// retry budget.
func Open(dsn string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("[Postgres] Connection pool configured",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)

	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping verifies connectivity with a bounded timeout.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// DB returns the underlying handle so the migration runner can share the
// connection rather than opening a second one.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Replace swaps the entire views_edits table for the given points in one
// transaction: delete-all, then a single COPY bulk insert. Never a merge —
// each seeding run owns the full window and prior history is discarded.
func (s *Store) Replace(ctx context.Context, points []SeriesPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM views_edits"); err != nil {
		return fmt.Errorf("failed to clear views_edits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("views_edits", seriesColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare bulk insert: %w", err)
	}

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx,
			p.RecordedAt,
			p.Category,
			p.Metric,
			p.Count,
			p.WeekStart,
			p.WeekNumber,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer series point: %w", err)
		}
	}

	// Flush the COPY stream.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush bulk insert: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series replacement: %w", err)
	}

	slog.Info("[Postgres] Replaced views_edits series", "points", len(points))
	return nil
}

// WeeklySummary runs the fixed weekly rollup and returns it as a table with
// columns (week_start, week_number, metric, category, total_count), ready
// for the pivot transform.
func (s *Store) WeeklySummary(ctx context.Context) (reshape.Table, error) {
	out := reshape.Table{
		Columns: []string{"week_start", "week_number", "metric", "category", "total_count"},
	}

	rows, err := s.db.QueryContext(ctx, queryWeeklySummary)
	if err != nil {
		return out, fmt.Errorf("failed to query weekly summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekStart  time.Time
			weekNumber int
			metric     string
			category   string
			total      int64
		)
		if err := rows.Scan(&weekStart, &weekNumber, &metric, &category, &total); err != nil {
			return out, fmt.Errorf("failed to scan weekly summary row: %w", err)
		}
		out.Rows = append(out.Rows, []any{
			weekStart.Format("2006-01-02"),
			weekNumber,
			metric,
			category,
			total,
		})
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("error iterating weekly summary: %w", err)
	}

	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
