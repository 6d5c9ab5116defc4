// Package rag implements the RAG Service Facade (C10): the externally
// callable query/metrics surface composing the hybrid retriever and its
// cache, with bounded in-flight backpressure (spec.md §4.10).
package rag

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/quillhq/promptforge/internal/retrieval/cache"
	"github.com/quillhq/promptforge/internal/retrieval/hybrid"
	"github.com/quillhq/promptforge/pkg/apperr"
)

// QueryResult is the facade's response shape (spec.md §4.10).
type QueryResult struct {
	Results   []hybrid.Result
	LatencyMS float64
	CacheHit  bool
}

// Metrics is the facade's aggregate-metrics response shape.
type Metrics struct {
	CacheHitRatio float64
	AvgLatencyMS  float64
	TotalQueries  int64
	DocCount      int64
}

// Sink is the subset of the metrics sink the facade emits to. Defined
// here (consumer side) so internal/metrics can implement it without rag
// importing metrics.
type Sink interface {
	ObserveRAGQuery(latencyMS float64, cacheHit bool, method string)
}

// Service is the RAG facade: it normalizes queries, checks the cache,
// falls through to the hybrid retriever on a miss, and enforces a bound
// on concurrent in-flight queries.
type Service struct {
	Retriever *hybrid.Retriever
	Cache     *cache.Cache
	Sink      Sink
	DocCount  func() int64

	inFlight chan struct{}

	mu           sync.Mutex
	totalQueries int64
	cacheHits    int64
	latencySum   float64
}

// New constructs a Service bounded to maxInFlight concurrent queries
// (spec.md §4.10: "bounded in-flight queries (default 64)").
func New(retriever *hybrid.Retriever, c *cache.Cache, sink Sink, maxInFlight int) *Service {
	return &Service{
		Retriever: retriever,
		Cache:     c,
		Sink:      sink,
		inFlight:  make(chan struct{}, maxInFlight),
	}
}

// Query answers one retrieval request, serving from cache when possible
// and failing fast with Overloaded when the in-flight bound is exceeded.
func (s *Service) Query(ctx context.Context, q string, k int, method hybrid.Method) (QueryResult, error) {
	select {
	case s.inFlight <- struct{}{}:
		defer func() { <-s.inFlight }()
	default:
		return QueryResult{}, apperr.New(apperr.KindOverloaded, "RAG service has reached its in-flight query bound")
	}

	start := time.Now()
	key := cache.Key(normalize(q), k, string(method), nil)

	cacheHit := true
	raw, err := s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		cacheHit = false
		return s.Retriever.Retrieve(ctx, q, k, method)
	})
	elapsed := time.Since(start)

	if err != nil {
		return QueryResult{}, err
	}

	s.recordQuery(elapsed, cacheHit, method)

	return QueryResult{
		Results:   raw.([]hybrid.Result),
		LatencyMS: float64(elapsed.Milliseconds()),
		CacheHit:  cacheHit,
	}, nil
}

func (s *Service) recordQuery(elapsed time.Duration, cacheHit bool, method hybrid.Method) {
	s.mu.Lock()
	s.totalQueries++
	if cacheHit {
		s.cacheHits++
	}
	s.latencySum += float64(elapsed.Milliseconds())
	s.mu.Unlock()

	if s.Sink != nil {
		s.Sink.ObserveRAGQuery(float64(elapsed.Milliseconds()), cacheHit, string(method))
	}
}

// Metrics returns the facade's aggregate statistics.
func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	total := s.totalQueries
	hits := s.cacheHits
	latencySum := s.latencySum
	s.mu.Unlock()

	m := Metrics{TotalQueries: total}
	if total > 0 {
		m.CacheHitRatio = float64(hits) / float64(total)
		m.AvgLatencyMS = latencySum / float64(total)
	}
	if s.DocCount != nil {
		m.DocCount = s.DocCount()
	}
	return m
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
