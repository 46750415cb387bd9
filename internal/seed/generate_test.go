package seed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateSeries_ShapeIsStable(t *testing.T) {
	now := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(rand.New(rand.NewSource(42)))

	points := gen.GenerateSeries(now, 6)

	// 6 full 7-day windows plus the window holding "now" itself:
	// 43 included days, four points each.
	require.Len(t, points, 43*4)

	perDay := make(map[time.Time]map[string]int)
	weekStarts := make(map[time.Time]struct{})
	for _, p := range points {
		require.GreaterOrEqual(t, p.Count, 0)
		require.False(t, p.RecordedAt.After(now), "points must be clipped at now")
		require.False(t, p.RecordedAt.Before(p.WeekStart))

		if perDay[p.RecordedAt] == nil {
			perDay[p.RecordedAt] = make(map[string]int)
		}
		perDay[p.RecordedAt][p.Category+"/"+p.Metric]++
		weekStarts[p.WeekStart] = struct{}{}
	}

	require.Len(t, weekStarts, 7)
	for day, pairs := range perDay {
		require.Len(t, pairs, 4, "day %s must carry all four series", day)
		for pair, n := range pairs {
			require.Equal(t, 1, n, "day %s pair %s duplicated", day, pair)
		}
	}
}

func TestGenerateSeries_WeekNumberIsCalendarWeekOfWindowStart(t *testing.T) {
	now := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(rand.New(rand.NewSource(7)))

	for _, p := range gen.GenerateSeries(now, 6) {
		_, want := p.WeekStart.ISOWeek()
		require.Equal(t, want, p.WeekNumber)
	}
}

func TestGenerateSeries_ValuesDifferAcrossRuns(t *testing.T) {
	now := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	a := NewGenerator(rand.New(rand.NewSource(1))).GenerateSeries(now, 6)
	b := NewGenerator(rand.New(rand.NewSource(2))).GenerateSeries(now, 6)

	require.Equal(t, len(a), len(b), "shape is deterministic")
	same := true
	for i := range a {
		if a[i].Count != b[i].Count {
			same = false
			break
		}
	}
	require.False(t, same, "magnitudes must come from the random source")
}
