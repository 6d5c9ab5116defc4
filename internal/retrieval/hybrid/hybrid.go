// Package hybrid implements the Hybrid Retriever (C8): parallel
// dense+lexical fanout, Reciprocal Rank Fusion, and reranking
// (spec.md §4.8).
package hybrid

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quillhq/promptforge/internal/retrieval/store"
	"github.com/quillhq/promptforge/pkg/apperr"
)

// Method selects which search methods Retrieve fans out to.
type Method string

const (
	MethodDense   Method = "dense"
	MethodLexical Method = "lexical"
	MethodHybrid  Method = "hybrid"
)

// Result is one retrieved document with its final (reranked) score.
type Result struct {
	DocID    string
	Text     string
	Score    float64
	Metadata map[string]string
}

// Reranker scores (query, text) pairs; higher is better (spec.md §6.2).
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Retriever fans out dense and lexical search, fuses the results with
// Reciprocal Rank Fusion, and reranks the survivors.
type Retriever struct {
	Vector   store.VectorStore
	Lexical  store.LexicalStore
	Embedder store.Embedder
	Reranker Reranker

	FanoutTimeout time.Duration
	RRFConstant   int // C in RRF(d) = Σ 1/(C + rank)
	RerankBatch   int
}

// Retrieve runs query through method, returning the top k fused and
// reranked results (spec.md §4.8 steps 1-6).
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, method Method) ([]Result, error) {
	kFuse := k * 4
	if kFuse > 50 {
		kFuse = 50
	}

	var denseResults, lexicalResults []store.ScoredDoc
	var denseErr, lexicalErr error

	g, gctx := errgroup.WithContext(ctx)

	if method == MethodDense || method == MethodHybrid {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, r.FanoutTimeout)
			defer cancel()
			vecs, err := r.Embedder.Embed(fctx, []string{query})
			if err != nil {
				denseErr = err
				return nil
			}
			denseResults, denseErr = r.Vector.DenseSearch(fctx, vecs[0], kFuse, nil)
			return nil
		})
	}

	if method == MethodLexical || method == MethodHybrid {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, r.FanoutTimeout)
			defer cancel()
			lexicalResults, lexicalErr = r.Lexical.LexicalSearch(fctx, query, kFuse, nil)
			return nil
		})
	}

	_ = g.Wait() // per-branch errors are captured above, not propagated through errgroup

	if denseErr != nil && lexicalErr != nil {
		return nil, apperr.Wrap(apperr.KindRetrievalUnavailable, errors.Join(denseErr, lexicalErr), "both dense and lexical retrieval failed")
	}

	fused := fuse(rankedList(denseResults, denseErr), rankedList(lexicalResults, lexicalErr), r.RRFConstant)
	if len(fused) > kFuse {
		fused = fused[:kFuse]
	}

	docs, fetchErr := r.fetchSurvivors(ctx, fused)
	if fetchErr != nil {
		return nil, apperr.Wrap(apperr.KindRetrievalUnavailable, fetchErr, "failed to fetch retrieved documents")
	}

	results, err := r.rerank(ctx, query, docs, fused)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRetrievalUnavailable, err, "rerank failed")
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// rankedList returns docs as a rank-ordered id list, or nil if err is
// non-nil (that method contributed nothing to the fusion).
func rankedList(docs []store.ScoredDoc, err error) []string {
	if err != nil {
		return nil
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}
	return ids
}

type fusedDoc struct {
	docID string
	score float64
}

// fuse combines two rank-ordered id lists by Reciprocal Rank Fusion:
// RRF(d) = Σ_m 1/(C + rank_m(d)), summed over every method d appears in
// (spec.md §4.8 step 3). Ranks are 1-based. Ties are broken by doc_id,
// matching the determinism rule in spec.md §4.8.
func fuse(dense, lexical []string, c int) []fusedDoc {
	scores := make(map[string]float64)
	addRanks(scores, dense, c)
	addRanks(scores, lexical, c)

	out := make([]fusedDoc, 0, len(scores))
	for id, s := range scores {
		out = append(out, fusedDoc{docID: id, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].docID < out[j].docID
	})
	return out
}

func addRanks(scores map[string]float64, ids []string, c int) {
	for i, id := range ids {
		rank := i + 1
		scores[id] += 1.0 / float64(c+rank)
	}
}

func (r *Retriever) fetchSurvivors(ctx context.Context, fused []fusedDoc) (map[string]store.Document, error) {
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.docID
	}

	byID := make(map[string]store.Document, len(ids))

	if r.Vector != nil {
		docs, err := r.Vector.Fetch(ctx, ids)
		if err == nil {
			for _, d := range docs {
				byID[d.DocID] = d
			}
		}
	}
	if len(byID) < len(ids) && r.Lexical != nil {
		docs, err := r.Lexical.Fetch(ctx, ids)
		if err != nil && len(byID) == 0 {
			return nil, err
		}
		for _, d := range docs {
			if _, ok := byID[d.DocID]; !ok {
				byID[d.DocID] = d
			}
		}
	}
	return byID, nil
}

// rerank scores every fetched fused survivor with the cross-encoder
// Reranker (or, with no Reranker wired, reuses the fused RRF score so the
// fusion order is preserved), drops survivors whose body was not fetched,
// and sorts descending by the final score, breaking ties by doc_id
// (lexical rank already contributes to the fusion score) (spec.md §4.8
// steps 5-6).
func (r *Retriever) rerank(ctx context.Context, query string, docs map[string]store.Document, fused []fusedDoc) ([]Result, error) {
	ids := make([]string, 0, len(fused))
	texts := make([]string, 0, len(fused))
	fusedScore := make(map[string]float64, len(fused))
	for _, f := range fused {
		d, ok := docs[f.docID]
		if !ok {
			continue
		}
		ids = append(ids, f.docID)
		texts = append(texts, d.Text)
		fusedScore[f.docID] = f.score
	}

	var scores []float64
	if r.Reranker != nil && len(texts) > 0 {
		s, err := r.Reranker.Rerank(ctx, query, texts)
		if err != nil {
			return nil, err
		}
		scores = s
	} else {
		// Stub rerank: identity on the fused RRF score (no cross-encoder
		// wired), preserving the fusion order exactly.
		scores = make([]float64, len(ids))
		for i, id := range ids {
			scores[i] = fusedScore[id]
		}
	}

	results := make([]Result, len(ids))
	for i, id := range ids {
		d := docs[id]
		results[i] = Result{DocID: id, Text: d.Text, Score: scores[i], Metadata: d.Metadata}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results, nil
}
