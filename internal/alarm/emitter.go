package alarm

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of emitter state for the JSON endpoints.
type Stats struct {
	GenerationCount int64
	Totals          map[string]int64
	RatesPer10s     map[string]float64
}

// Emitter is the background loop that synthesizes alarm occurrences on a
// fixed cadence. It is the sole writer of its counters; HTTP handlers only
// read snapshots.
type Emitter struct {
	catalog  []AlarmType
	model    *RateModel
	metrics  *Metrics
	interval time.Duration

	generations atomic.Int64

	mu     sync.RWMutex
	totals map[string]int64
	rates  map[string]float64
}

func NewEmitter(catalog []AlarmType, model *RateModel, metrics *Metrics, interval time.Duration) *Emitter {
	return &Emitter{
		catalog:  catalog,
		model:    model,
		metrics:  metrics,
		interval: interval,
		totals:   make(map[string]int64, len(catalog)),
		rates:    make(map[string]float64, len(catalog)),
	}
}

// Run generates one batch immediately, then on every tick until the context
// is cancelled. A failing tick is logged and the cadence continues — one bad
// generation never halts the stream.
func (e *Emitter) Run(ctx context.Context) error {
	slog.Info("[Emitter] Starting alarm generation loop",
		"interval", e.interval,
		"alarm_types", len(e.catalog),
	)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.safeTick()
	for {
		select {
		case <-ticker.C:
			e.safeTick()
		case <-ctx.Done():
			slog.Info("[Emitter] Stopping (context cancelled)",
				"generations", e.generations.Load())
			return nil
		}
	}
}

func (e *Emitter) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[Emitter] Tick failed, retrying on next interval",
				"generation", e.generations.Load(), "panic", r)
		}
	}()
	e.tick()
}

// tick draws a fresh rate per alarm type, publishes it as a gauge, and
// accumulates the drawn occurrence count into the monotonic counter plus the
// snapshot used by /stats.
func (e *Emitter) tick() {
	generation := e.generations.Add(1)
	emitted := int64(0)

	rates := make(map[string]float64, len(e.catalog))
	counts := make(map[string]int64, len(e.catalog))
	for _, t := range e.catalog {
		rate := e.model.RatePer10s(t.Tier)
		n := e.model.Draw(rate)
		e.metrics.Observe(t.Name, rate, n)

		rates[t.Name] = rate
		counts[t.Name] = int64(n)
		emitted += int64(n)
	}

	e.mu.Lock()
	for name, rate := range rates {
		e.rates[name] = rate
		e.totals[name] += counts[name]
	}
	e.mu.Unlock()

	slog.Info("[Emitter] Generated alarms", "generation", generation, "emitted", emitted)
}

// Snapshot copies the current totals and rates for the JSON endpoints.
// Rates are rounded to three decimals for stable debug output.
func (e *Emitter) Snapshot() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{
		GenerationCount: e.generations.Load(),
		Totals:          make(map[string]int64, len(e.totals)),
		RatesPer10s:     make(map[string]float64, len(e.rates)),
	}
	for name, total := range e.totals {
		s.Totals[name] = total
	}
	for name, rate := range e.rates {
		s.RatesPer10s[name] = math.Round(rate*1000) / 1000
	}
	return s
}
