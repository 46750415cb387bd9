package report

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obslab/pulse/internal/grafana"
	"github.com/obslab/pulse/internal/reshape"
)

type fakeQuerySource struct {
	dashboards    []grafana.DashboardRef
	dashboardsErr error
	queries       map[string][]grafana.QueryDescriptor
	queriesErr    map[string]error
	results       map[string]*reshape.Table // keyed by panel title
}

func (f *fakeQuerySource) ListDashboards(context.Context) ([]grafana.DashboardRef, error) {
	return f.dashboards, f.dashboardsErr
}

func (f *fakeQuerySource) DashboardQueries(_ context.Context, uid string) ([]grafana.QueryDescriptor, error) {
	if err := f.queriesErr[uid]; err != nil {
		return nil, err
	}
	return f.queries[uid], nil
}

func (f *fakeQuerySource) Execute(_ context.Context, desc grafana.QueryDescriptor) *reshape.Table {
	return f.results[desc.PanelTitle]
}

type fakeWeeklySource struct {
	table reshape.Table
	err   error
}

func (f *fakeWeeklySource) WeeklySummary(context.Context) (reshape.Table, error) {
	return f.table, f.err
}

type fakeTablePublisher struct {
	published map[string]reshape.Table
	err       error
}

func (f *fakeTablePublisher) Publish(_ context.Context, tables map[string]reshape.Table) error {
	f.published = tables
	return f.err
}

func alarmSeriesFixture() *reshape.Table {
	return &reshape.Table{
		Columns: []string{"Time", "alarm_total_high_cpu_usage_total"},
		Rows: [][]any{
			{int64(1_718_000_000_000), float64(10)},
			{int64(1_718_000_060_000), float64(15)},
			{int64(1_718_000_120_000), float64(20)},
		},
	}
}

func weeklySummaryFixture() reshape.Table {
	return reshape.Table{
		Columns: []string{"week_start", "metric", "category", "total_count"},
		Rows: [][]any{
			{"2024-06-01", "views", "general", int64(15000)},
			{"2024-06-01", "views", "internal", int64(8000)},
			{"2024-06-01", "edits", "general", int64(2500)},
			{"2024-06-01", "edits", "internal", int64(1200)},
		},
	}
}

func TestRunner_Run_PublishesBothSheets(t *testing.T) {
	source := &fakeQuerySource{
		dashboards: []grafana.DashboardRef{{UID: "alarms", Title: "Alarms"}},
		queries: map[string][]grafana.QueryDescriptor{
			"alarms": {
				{PanelTitle: "High CPU", Backend: grafana.BackendTimeseries, Query: "alarm_total_high_cpu_usage_total"},
			},
		},
		results: map[string]*reshape.Table{
			"High CPU": alarmSeriesFixture(),
		},
	}
	weekly := &fakeWeeklySource{table: weeklySummaryFixture()}
	publisher := &fakeTablePublisher{}

	err := NewRunner(source, weekly, publisher).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, publisher.published, 2)

	alarms, ok := publisher.published[SheetAlarms]
	require.True(t, ok)
	require.Equal(t, []string{"alarm_name", "date", "cumulative_count"}, alarms.Columns)
	require.Len(t, alarms.Rows, 2)
	require.Equal(t, "High Cpu Usage", alarms.Rows[0][0])

	activity, ok := publisher.published[SheetViewsAndEdits]
	require.True(t, ok)
	require.Equal(t, []string{"week_start", "metric", "general", "internal"}, activity.Columns)
	require.Equal(t, []any{"2024-06-01", "edits", int64(2500), int64(1200)}, activity.Rows[0])
	require.Equal(t, []any{"2024-06-01", "views", int64(15000), int64(8000)}, activity.Rows[1])
}

func TestRunner_Run_DiscoveryFailures(t *testing.T) {
	tests := []struct {
		name    string
		source  *fakeQuerySource
		wantErr string
	}{
		{
			name:    "search endpoint unreachable",
			source:  &fakeQuerySource{dashboardsErr: fmt.Errorf("connection refused")},
			wantErr: "cannot reach dashboard service",
		},
		{
			name:    "no dashboards provisioned",
			source:  &fakeQuerySource{},
			wantErr: "no dashboards found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			publisher := &fakeTablePublisher{}
			err := NewRunner(tc.source, &fakeWeeklySource{}, publisher).Run(context.Background())
			require.ErrorContains(t, err, tc.wantErr)
			require.Nil(t, publisher.published)
		})
	}
}

func TestRunner_Run_WeeklyFallsBackToPanels(t *testing.T) {
	source := &fakeQuerySource{
		dashboards: []grafana.DashboardRef{{UID: "activity", Title: "Views and Edits"}},
		queries: map[string][]grafana.QueryDescriptor{
			"activity": {
				{PanelTitle: "General Activity", Backend: grafana.BackendRelational, Query: "SELECT 1"},
				{PanelTitle: "Internal Activity", Backend: grafana.BackendRelational, Query: "SELECT 2"},
			},
		},
		results: map[string]*reshape.Table{
			"General Activity": {
				Columns: []string{"time", "Views", "Edits"},
				Rows:    [][]any{{"2024-06-01", int64(15000), int64(2500)}},
			},
			"Internal Activity": {
				Columns: []string{"time", "Views", "Edits"},
				Rows:    [][]any{{"2024-06-01", int64(8000), int64(1200)}},
			},
		},
	}
	weekly := &fakeWeeklySource{err: fmt.Errorf("database unavailable")}
	publisher := &fakeTablePublisher{}

	err := NewRunner(source, weekly, publisher).Run(context.Background())
	require.NoError(t, err)

	activity, ok := publisher.published[SheetViewsAndEdits]
	require.True(t, ok)
	require.Equal(t, []any{"2024-06-01", "edits", int64(2500), int64(1200)}, activity.Rows[0])
	require.Equal(t, []any{"2024-06-01", "views", int64(15000), int64(8000)}, activity.Rows[1])

	// The alarm sheet is absent, not empty, when no series data exists.
	_, ok = publisher.published[SheetAlarms]
	require.False(t, ok)
}

func TestRunner_Run_NilWeeklySourceUsesPanels(t *testing.T) {
	source := &fakeQuerySource{
		dashboards: []grafana.DashboardRef{{UID: "activity", Title: "Views and Edits"}},
		queries: map[string][]grafana.QueryDescriptor{
			"activity": {
				{PanelTitle: "general views and edits", Backend: grafana.BackendRelational, Query: "SELECT 1"},
				{PanelTitle: "internal views and edits", Backend: grafana.BackendRelational, Query: "SELECT 2"},
			},
		},
		results: map[string]*reshape.Table{
			"general views and edits": {
				Columns: []string{"time", "Views", "Edits"},
				Rows:    [][]any{{"2024-06-08", int64(100), int64(10)}},
			},
			"internal views and edits": {
				Columns: []string{"time", "Views", "Edits"},
				Rows:    [][]any{{"2024-06-08", int64(40), int64(4)}},
			},
		},
	}
	publisher := &fakeTablePublisher{}

	err := NewRunner(source, nil, publisher).Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, publisher.published, SheetViewsAndEdits)
}

func TestRunner_Run_NothingToReport(t *testing.T) {
	source := &fakeQuerySource{
		dashboards: []grafana.DashboardRef{{UID: "alarms", Title: "Alarms"}},
		queries: map[string][]grafana.QueryDescriptor{
			"alarms": {
				{PanelTitle: "High CPU", Backend: grafana.BackendTimeseries, Query: "alarm_total_high_cpu_usage_total"},
			},
		},
		// Execute yields nil for every query.
	}
	weekly := &fakeWeeklySource{err: fmt.Errorf("database unavailable")}
	publisher := &fakeTablePublisher{}

	err := NewRunner(source, weekly, publisher).Run(context.Background())
	require.ErrorContains(t, err, "no reshaped tables to publish")
	require.Nil(t, publisher.published)
}

func TestRunner_Run_SkipsFailedDashboard(t *testing.T) {
	source := &fakeQuerySource{
		dashboards: []grafana.DashboardRef{
			{UID: "broken", Title: "Broken"},
			{UID: "alarms", Title: "Alarms"},
		},
		queriesErr: map[string]error{"broken": fmt.Errorf("panel parse failed")},
		queries: map[string][]grafana.QueryDescriptor{
			"alarms": {
				{PanelTitle: "High CPU", Backend: grafana.BackendTimeseries, Query: "alarm_total_high_cpu_usage_total"},
			},
		},
		results: map[string]*reshape.Table{
			"High CPU": alarmSeriesFixture(),
		},
	}
	publisher := &fakeTablePublisher{}

	err := NewRunner(source, &fakeWeeklySource{table: weeklySummaryFixture()}, publisher).Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, publisher.published, SheetAlarms)
}
