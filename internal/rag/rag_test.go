package rag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/retrieval/cache"
	"github.com/quillhq/promptforge/internal/retrieval/hybrid"
	"github.com/quillhq/promptforge/internal/retrieval/store"
)

func testRetriever() *hybrid.Retriever {
	dense := store.NewMemoryDenseStore()
	dense.Index(store.Document{DocID: "a", Text: "hello"}, []float32{1, 0})

	return &hybrid.Retriever{
		Vector:        dense,
		Lexical:       stubLexical{},
		Embedder:      store.NewStubEmbedder(2),
		FanoutTimeout: time.Second,
		RRFConstant:   60,
	}
}

type stubLexical struct{}

func (stubLexical) LexicalSearch(context.Context, string, int, store.Filters) ([]store.ScoredDoc, error) {
	return nil, nil
}
func (stubLexical) Fetch(context.Context, []string) ([]store.Document, error) { return nil, nil }

type recordingSink struct {
	calls int
}

func (r *recordingSink) ObserveRAGQuery(float64, bool, string) { r.calls++ }

func TestQuery_CacheMissThenHit(t *testing.T) {
	c := cache.New(time.Minute, 100)
	sink := &recordingSink{}
	svc := New(testRetriever(), c, sink, 4)

	r1, err := svc.Query(context.Background(), "hello", 1, hybrid.MethodDense)
	require.NoError(t, err)
	assert.False(t, r1.CacheHit)

	r2, err := svc.Query(context.Background(), "hello", 1, hybrid.MethodDense)
	require.NoError(t, err)
	assert.True(t, r2.CacheHit)

	assert.Equal(t, 2, sink.calls)
}

func TestQuery_OverloadedWhenInFlightBoundExceeded(t *testing.T) {
	c := cache.New(time.Minute, 100)
	svc := New(testRetriever(), c, nil, 1)
	svc.inFlight <- struct{}{} // simulate one query already in flight

	_, err := svc.Query(context.Background(), "hello", 1, hybrid.MethodDense)
	assert.Error(t, err)
}

func TestMetrics_TracksHitRatioAndLatency(t *testing.T) {
	c := cache.New(time.Minute, 100)
	svc := New(testRetriever(), c, nil, 4)

	_, _ = svc.Query(context.Background(), "hello", 1, hybrid.MethodDense)
	_, _ = svc.Query(context.Background(), "hello", 1, hybrid.MethodDense)

	m := svc.Metrics()
	assert.Equal(t, int64(2), m.TotalQueries)
	assert.InDelta(t, 0.5, m.CacheHitRatio, 1e-9)
}
