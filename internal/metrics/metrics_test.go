package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRAGQuery_IncrementsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObserveRAGQuery(12.5, true, "hybrid")
	s.ObserveRAGQuery(8.0, false, "dense")

	assert.Equal(t, float64(1), testutil.ToFloat64(s.ragQueriesTotal.WithLabelValues("hybrid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.ragCacheHitsTotal))
}

func TestObserveBanditUpdate_SetsExpectedValueGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObserveBanditUpdate("g1", 0.75)

	assert.Equal(t, float64(0.75), testutil.ToFloat64(s.banditExpectedValue.WithLabelValues("g1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.banditUpdatesTotal.WithLabelValues("g1")))
}

func TestObserveExecutor_RecordsFailureKindOnlyWhenPresent(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObserveExecutor(100, "")
	s.ObserveExecutor(50, "GeneratorTimeout")

	assert.Equal(t, float64(1), testutil.ToFloat64(s.executorFailures.WithLabelValues("GeneratorTimeout")))
}

func TestSetPopulationBestScore(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.SetPopulationBestScore(0.92)
	assert.Equal(t, float64(0.92), testutil.ToFloat64(s.populationBestScore))
}
