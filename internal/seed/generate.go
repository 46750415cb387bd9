package seed

import (
	"math/rand"
	"time"
)

// SeriesPoint is one synthetic daily observation for a (category, metric)
// pair. Points are bulk-replaced in Postgres on every seeding run.
type SeriesPoint struct {
	RecordedAt time.Time
	Category   string
	Metric     string
	Count      int
	WeekStart  time.Time
	WeekNumber int
}

// pairProfile holds the weekly base-count shape for one (category, metric)
// pair: base plus a linear per-week trend plus a uniform jitter range.
type pairProfile struct {
	category string
	metric   string
	base     int
	trend    int
	jitterLo int
	jitterHi int
}

var seriesProfiles = []pairProfile{
	{category: "general", metric: "views", base: 15000, trend: 500, jitterLo: -2000, jitterHi: 3000},
	{category: "general", metric: "edits", base: 2500, trend: 50, jitterLo: -300, jitterHi: 500},
	{category: "internal", metric: "views", base: 8000, trend: 200, jitterLo: -1000, jitterHi: 1500},
	{category: "internal", metric: "edits", base: 1200, trend: 25, jitterLo: -150, jitterHi: 250},
}

// Generator produces the synthetic views/edits series. The random source is
// injected so tests can pin a seed; production passes nil for a time-seeded
// source.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// GenerateSeries builds daily points for consecutive 7-day windows covering
// [now - windowWeeks, now]. Per window and per pair, a weekly base count is
// drawn once (base + week*trend + jitter), then each day emits
// base/7 scaled by an independent daily factor in [0.8, 1.2). Days past now
// are clipped, so every included day contributes exactly four points.
//
// Magnitudes are intentionally non-deterministic; only the shape is stable.
func (g *Generator) GenerateSeries(now time.Time, windowWeeks int) []SeriesPoint {
	start := now.Add(-time.Duration(windowWeeks) * 7 * 24 * time.Hour)

	var points []SeriesPoint
	weekIdx := 1
	for windowStart := start; !windowStart.After(now); windowStart = windowStart.AddDate(0, 0, 7) {
		_, isoWeek := windowStart.ISOWeek()

		bases := make([]float64, len(seriesProfiles))
		for i, p := range seriesProfiles {
			bases[i] = float64(p.base + weekIdx*p.trend + g.intBetween(p.jitterLo, p.jitterHi))
		}

		for day := 0; day < 7; day++ {
			pointDate := windowStart.AddDate(0, 0, day)
			if pointDate.After(now) {
				break
			}
			for i, p := range seriesProfiles {
				factor := 0.8 + g.rng.Float64()*0.4
				count := int(bases[i] / 7 * factor)
				if count < 0 {
					count = 0
				}
				points = append(points, SeriesPoint{
					RecordedAt: pointDate,
					Category:   p.category,
					Metric:     p.metric,
					Count:      count,
					WeekStart:  windowStart,
					WeekNumber: isoWeek,
				})
			}
		}
		weekIdx++
	}
	return points
}

// intBetween draws uniformly from [lo, hi] inclusive.
func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}
