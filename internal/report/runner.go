package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/obslab/pulse/internal/grafana"
	"github.com/obslab/pulse/internal/reshape"
)

// QuerySource is the dashboard-driven extraction surface of the run.
type QuerySource interface {
	ListDashboards(ctx context.Context) ([]grafana.DashboardRef, error)
	DashboardQueries(ctx context.Context, uid string) ([]grafana.QueryDescriptor, error)
	Execute(ctx context.Context, desc grafana.QueryDescriptor) *reshape.Table
}

// WeeklySource is the direct relational path for the weekly rollup.
type WeeklySource interface {
	WeeklySummary(ctx context.Context) (reshape.Table, error)
}

// TablePublisher delivers the finished report tables.
type TablePublisher interface {
	Publish(ctx context.Context, tables map[string]reshape.Table) error
}

// Runner drives one reporting batch: extraction, reshaping, publish.
// Single-threaded and run-to-completion; individual query failures degrade
// to missing data, only "nothing at all to report" is fatal.
type Runner struct {
	queries   QuerySource
	weekly    WeeklySource // nil when the database is unreachable
	publisher TablePublisher
}

func NewRunner(queries QuerySource, weekly WeeklySource, publisher TablePublisher) *Runner {
	return &Runner{queries: queries, weekly: weekly, publisher: publisher}
}

type panelTable struct {
	title string
	table reshape.Table
}

func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	dashboards, err := r.queries.ListDashboards(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach dashboard service: %w", err)
	}
	if len(dashboards) == 0 {
		return fmt.Errorf("no dashboards found")
	}
	log.Info("[Reporter] Connected to dashboard service", "dashboards", len(dashboards))

	var timeseriesTables []reshape.Table
	var relationalPanels []panelTable

	for _, dash := range dashboards {
		queries, err := r.queries.DashboardQueries(ctx, dash.UID)
		if err != nil {
			log.Error("[Reporter] Failed to extract dashboard queries", "dashboard", dash.UID, "error", err)
			continue
		}

		for _, desc := range queries {
			result := r.queries.Execute(ctx, desc)
			if result == nil {
				continue
			}
			switch desc.Backend {
			case grafana.BackendTimeseries:
				timeseriesTables = append(timeseriesTables, *result)
			case grafana.BackendRelational:
				relationalPanels = append(relationalPanels, panelTable{title: desc.PanelTitle, table: *result})
			}
		}
	}

	tables := make(map[string]reshape.Table)

	// Time-series path: concatenate all counter snapshots, then derive
	// per-minute increases in one pass. The exported sheet carries the
	// cumulative view only.
	alarms := reshape.FlattenCounterSeries(reshape.Concat(timeseriesTables...))
	if !alarms.Empty() {
		tables[SheetAlarms] = alarms.Select("alarm_name", "date", "cumulative_count")
		log.Info("[Reporter] Reshaped alarm series", "rows", len(alarms.Rows))
	} else {
		log.Warn("[Reporter] No alarm time-series data found")
	}

	if weekly := r.weeklyReport(ctx, log, relationalPanels); !weekly.Empty() {
		tables[SheetViewsAndEdits] = weekly
		log.Info("[Reporter] Reshaped weekly activity", "rows", len(weekly.Rows))
	} else {
		log.Warn("[Reporter] No weekly activity data found")
	}

	if len(tables) == 0 {
		return fmt.Errorf("no reshaped tables to publish")
	}
	return r.publisher.Publish(ctx, tables)
}

// weeklyReport prefers the direct SQL rollup; when that path yields nothing
// it reconstructs the report from the per-category dashboard panels.
func (r *Runner) weeklyReport(ctx context.Context, log *slog.Logger, panels []panelTable) reshape.Table {
	if r.weekly != nil {
		summary, err := r.weekly.WeeklySummary(ctx)
		if err != nil {
			log.Warn("[Reporter] Direct weekly summary failed, trying dashboard panels", "error", err)
		} else if pivoted := reshape.PivotWeekly(summary); !pivoted.Empty() {
			return pivoted
		}
	}

	var general, internal *reshape.Table
	for i := range panels {
		title := strings.ToLower(panels[i].title)
		switch {
		case strings.Contains(title, "general"):
			general = &panels[i].table
		case strings.Contains(title, "internal"):
			internal = &panels[i].table
		}
	}
	if general == nil || internal == nil {
		log.Warn("[Reporter] Missing general or internal panel data")
		return reshape.Table{}
	}
	return reshape.CombineCategoryTables(*general, *internal)
}
