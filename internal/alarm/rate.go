package alarm

import (
	"math"
	"math/rand"
	"time"
)

// Business-hours windows for the time-of-day multiplier (inclusive hour
// bounds, local clock of the injected time source).
type RateWindows struct {
	BusinessStart int
	BusinessEnd   int
	EveningStart  int
	EveningEnd    int
}

func DefaultRateWindows() RateWindows {
	return RateWindows{BusinessStart: 9, BusinessEnd: 17, EveningStart: 18, EveningEnd: 22}
}

// RateModel turns an alarm tier into an instantaneous occurrence rate per
// emitter interval. Randomness and clock are injected so tests can pin both.
type RateModel struct {
	rng     *rand.Rand
	now     func() time.Time
	windows RateWindows
}

func NewRateModel(rng *rand.Rand, now func() time.Time, windows RateWindows) *RateModel {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &RateModel{rng: rng, now: now, windows: windows}
}

// RatePer10s draws the rate for one tick: a tier-specific uniform base,
// scaled by time-of-day and day-of-week multipliers plus a final jitter
// factor, clamped to ≥ 0.
func (m *RateModel) RatePer10s(tier Tier) float64 {
	var base float64
	switch tier {
	case TierHigh:
		base = m.uniform(0.2, 0.8)
	case TierMedium:
		base = m.uniform(0.1, 0.4)
	default:
		base = m.uniform(0.05, 0.2)
	}

	now := m.now()

	hourMult := 1.0
	hour := now.Hour()
	switch {
	case hour >= m.windows.BusinessStart && hour <= m.windows.BusinessEnd:
		hourMult = 2.0
	case hour >= m.windows.EveningStart && hour <= m.windows.EveningEnd:
		hourMult = 1.5
	}

	dayMult := 1.0
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		dayMult = 0.6
	}

	rate := base * hourMult * dayMult * m.uniform(0.9, 1.5)
	return math.Max(0, rate)
}

// Draw converts a rate into a discrete occurrence count for one tick.
func (m *RateModel) Draw(rate float64) int {
	return OccurrenceCount(rate, m.rng.Float64())
}

// OccurrenceCount maps a uniform sample u onto an occurrence count via
// rate-scaled thresholds. The single sample is reused across all three
// comparisons and the 0.6/0.85 cut points are scaled by the rate itself;
// alarm volume calibration depends on this exact shape, so do not replace it
// with fixed cut points.
func OccurrenceCount(rate, u float64) int {
	if rate <= 0 || u >= rate {
		return 0
	}
	switch {
	case u < rate*0.6:
		return 1
	case u < rate*0.85:
		return 2
	default:
		return int(math.Max(1, math.Round(rate*5)))
	}
}

func (m *RateModel) uniform(lo, hi float64) float64 {
	return lo + m.rng.Float64()*(hi-lo)
}
