// Package metrics exposes lookup counters and latencies to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records weather lookup outcomes.
type Metrics struct {
	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_lookups_total",
				Help: "Weather lookups by outcome (applied, superseded, failed).",
			},
			[]string{"outcome"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "weather_lookup_duration_seconds",
				Help: "Time spent waiting on the weather provider.",
				// 50ms to ~25s
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.lookupsTotal, m.lookupDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveLookup counts one lookup and records how long the fetch took.
func (m *Metrics) ObserveLookup(outcome string, elapsed time.Duration) {
	m.lookupsTotal.WithLabelValues(outcome).Inc()
	m.lookupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
