package hybrid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/retrieval/store"
)

type fakeVectorStore struct {
	dense []store.ScoredDoc
	docs  map[string]store.Document
	err   error
}

func (f *fakeVectorStore) DenseSearch(_ context.Context, _ []float32, k int, _ store.Filters) ([]store.ScoredDoc, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.dense) {
		return f.dense[:k], nil
	}
	return f.dense, nil
}

func (f *fakeVectorStore) Fetch(_ context.Context, ids []string) ([]store.Document, error) {
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeLexicalStore struct {
	lexical []store.ScoredDoc
	docs    map[string]store.Document
	err     error
}

func (f *fakeLexicalStore) LexicalSearch(_ context.Context, _ string, k int, _ store.Filters) ([]store.ScoredDoc, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.lexical) {
		return f.lexical[:k], nil
	}
	return f.lexical, nil
}

func (f *fakeLexicalStore) Fetch(_ context.Context, ids []string) ([]store.Document, error) {
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func docSet(ids ...string) map[string]store.Document {
	m := make(map[string]store.Document, len(ids))
	for _, id := range ids {
		m[id] = store.Document{DocID: id, Text: "text-" + id}
	}
	return m
}

func TestRetrieve_RRFWorkedExample(t *testing.T) {
	docs := docSet("d1", "d2", "d3", "d4")
	r := &Retriever{
		Vector:        &fakeVectorStore{dense: []store.ScoredDoc{{DocID: "d1"}, {DocID: "d2"}, {DocID: "d3"}}, docs: docs},
		Lexical:       &fakeLexicalStore{lexical: []store.ScoredDoc{{DocID: "d3"}, {DocID: "d4"}, {DocID: "d1"}}, docs: docs},
		Embedder:      store.NewStubEmbedder(4),
		FanoutTimeout: time.Second,
		RRFConstant:   60,
	}

	results, err := r.Retrieve(context.Background(), "query", 3, MethodHybrid)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "d3", results[1].DocID)
	assert.Equal(t, "d2", results[2].DocID)
}

func TestRetrieve_BothMethodsFail_ReturnsRetrievalUnavailable(t *testing.T) {
	r := &Retriever{
		Vector:        &fakeVectorStore{err: errors.New("dense down")},
		Lexical:       &fakeLexicalStore{err: errors.New("lexical down")},
		Embedder:      store.NewStubEmbedder(4),
		FanoutTimeout: time.Second,
		RRFConstant:   60,
	}

	_, err := r.Retrieve(context.Background(), "query", 3, MethodHybrid)
	assert.Error(t, err)
}

func TestRetrieve_OneMethodFails_ProceedsWithTheOther(t *testing.T) {
	docs := docSet("d1", "d2")
	r := &Retriever{
		Vector:        &fakeVectorStore{err: errors.New("dense down")},
		Lexical:       &fakeLexicalStore{lexical: []store.ScoredDoc{{DocID: "d1"}, {DocID: "d2"}}, docs: docs},
		Embedder:      store.NewStubEmbedder(4),
		FanoutTimeout: time.Second,
		RRFConstant:   60,
	}

	results, err := r.Retrieve(context.Background(), "query", 2, MethodHybrid)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestFuse_RankOrderPrecedesDocIDTieBreak(t *testing.T) {
	fused := fuse([]string{"b", "a"}, nil, 60)
	require.Len(t, fused, 2)
	assert.Equal(t, "b", fused[0].docID, "rank determines score before any tie-break applies")
}
