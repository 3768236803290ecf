package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherwidget/internal/metrics"
	"github.com/neexbeast/weatherwidget/internal/widget"
)

var _ widget.Recorder = (*metrics.Metrics)(nil)

func TestObserveLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.ObserveLookup(widget.OutcomeApplied, 120*time.Millisecond)
	m.ObserveLookup(widget.OutcomeApplied, 80*time.Millisecond)
	m.ObserveLookup(widget.OutcomeFailed, time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "weather_lookups_total"))

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "weather_lookups_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, counts[widget.OutcomeApplied])
	assert.Equal(t, 1.0, counts[widget.OutcomeFailed])
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}
