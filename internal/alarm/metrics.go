package alarm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry for the emitter: one cumulative
// counter and one last-write-wins rate gauge per alarm type. A dedicated
// registry keeps Go runtime collectors out of the scrape, matching the
// exposition the report pipeline expects.
type Metrics struct {
	registry *prometheus.Registry
	totals   map[string]prometheus.Counter
	rates    map[string]prometheus.Gauge
}

func NewMetrics(catalog []AlarmType) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		totals:   make(map[string]prometheus.Counter, len(catalog)),
		rates:    make(map[string]prometheus.Gauge, len(catalog)),
	}

	for _, t := range catalog {
		words := strings.ReplaceAll(t.Name, "_", " ")

		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("alarm_total_%s_total", t.Name),
			Help: fmt.Sprintf("Total count of %s alarms", words),
		})
		if err := m.registry.Register(counter); err != nil {
			return nil, fmt.Errorf("registering counter for %q: %w", t.Name, err)
		}
		m.totals[t.Name] = counter

		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("alarm_rate_%s_per_10s", t.Name),
			Help: fmt.Sprintf("Current rate of %s alarms per 10 seconds", words),
		})
		if err := m.registry.Register(gauge); err != nil {
			return nil, fmt.Errorf("registering gauge for %q: %w", t.Name, err)
		}
		m.rates[t.Name] = gauge
	}

	return m, nil
}

// Observe records one tick for an alarm type: the gauge takes the
// instantaneous rate, the counter accumulates occurrences.
func (m *Metrics) Observe(name string, rate float64, occurrences int) {
	if g, ok := m.rates[name]; ok {
		g.Set(rate)
	}
	if occurrences > 0 {
		if c, ok := m.totals[name]; ok {
			c.Add(float64(occurrences))
		}
	}
}

// Handler serves the registry in the standard text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
