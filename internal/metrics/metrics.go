// Package metrics implements the Metrics Sink (C12): process-wide
// Prometheus counters, gauges, and histograms for the optimizer and RAG
// service, with no coupling to any UI (spec.md §4.12).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink owns every metric promptforge exports. It is thread-safe by
// construction (every field is a prometheus collector) and is the
// process's one metrics singleton, created once in main and threaded
// through every component that reports to it (spec.md §9: "Process-wide
// state is limited to the Metrics Sink and Bandit snapshot file").
type Sink struct {
	ragQueriesTotal    *prometheus.CounterVec
	ragCacheHitsTotal  prometheus.Counter
	banditUpdatesTotal *prometheus.CounterVec
	executorFailures   *prometheus.CounterVec

	banditExpectedValue *prometheus.GaugeVec
	populationBestScore prometheus.Gauge

	ragLatencyMS      prometheus.Histogram
	executorLatencyMS prometheus.Histogram
}

// New registers every promptforge metric against reg and returns the
// Sink. Pass prometheus.DefaultRegisterer to expose metrics on the
// default /metrics handler.
func New(reg prometheus.Registerer) *Sink {
	factory := promauto.With(reg)

	return &Sink{
		ragQueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rag_queries_total",
			Help: "Total RAG queries served, labeled by retrieval method.",
		}, []string{"method"}),
		ragCacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rag_cache_hits_total",
			Help: "Total RAG queries served from cache.",
		}),
		banditUpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bandit_updates_total",
			Help: "Total bandit reward updates, labeled by genome_id.",
		}, []string{"genome_id"}),
		executorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "executor_failures_total",
			Help: "Total executor failures, labeled by error kind.",
		}, []string{"kind"}),
		banditExpectedValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bandit_expected_value",
			Help: "Current expected value (alpha/(alpha+beta)) per arm.",
		}, []string{"genome_id"}),
		populationBestScore: factory.NewGauge(prometheus.GaugeOpts{
			Name: "population_best_score",
			Help: "Best mean fitness seen so far in the current optimize run.",
		}),
		ragLatencyMS: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rag_latency_ms",
			Help:    "RAG query latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 12),
		}),
		executorLatencyMS: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "executor_latency_ms",
			Help:    "Executor call latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(50, 2, 12),
		}),
	}
}

// ObserveRAGQuery implements rag.Sink.
func (s *Sink) ObserveRAGQuery(latencyMS float64, cacheHit bool, method string) {
	s.ragQueriesTotal.WithLabelValues(method).Inc()
	if cacheHit {
		s.ragCacheHitsTotal.Inc()
	}
	s.ragLatencyMS.Observe(latencyMS)
}

// ObserveExecutor records one executor call's latency and, if kind is
// non-empty, a failure of that kind.
func (s *Sink) ObserveExecutor(latencyMS float64, kind string) {
	s.executorLatencyMS.Observe(latencyMS)
	if kind != "" {
		s.executorFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveBanditUpdate records one reward update for genomeID and
// publishes its current expected value.
func (s *Sink) ObserveBanditUpdate(genomeID string, expectedValue float64) {
	s.banditUpdatesTotal.WithLabelValues(genomeID).Inc()
	s.banditExpectedValue.WithLabelValues(genomeID).Set(expectedValue)
}

// SetPopulationBestScore publishes the current generation's best mean
// fitness.
func (s *Sink) SetPopulationBestScore(score float64) {
	s.populationBestScore.Set(score)
}
