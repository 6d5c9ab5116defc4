// Package store implements the Vector Store Interface (C7): the
// dense/lexical search and fetch operations the hybrid retriever fans
// out to (spec.md §4.7, §6.2).
package store

import "context"

// ScoredDoc is one hit from dense_search or lexical_search. Scores from
// different methods are NOT directly comparable (spec.md §4.7).
type ScoredDoc struct {
	DocID string
	Score float64
}

// Document is a fetched document body plus its source metadata,
// returned by Fetch and, ultimately, by the RAG facade.
type Document struct {
	DocID    string
	Text     string
	Metadata map[string]string
}

// Filters narrows a search to documents matching all given key/value
// pairs; a nil or empty Filters matches everything.
type Filters map[string]string

// VectorStore performs dense (embedding-space) nearest-neighbor search.
// Ingestion (Upsert/Delete) is out of scope here: this interface only
// covers the read path the hybrid retriever needs (spec.md §4.7).
type VectorStore interface {
	DenseSearch(ctx context.Context, queryVec []float32, k int, filters Filters) ([]ScoredDoc, error)
	Fetch(ctx context.Context, docIDs []string) ([]Document, error)
}

// LexicalStore performs keyword/BM25-style search over document text.
type LexicalStore interface {
	LexicalSearch(ctx context.Context, queryText string, k int, filters Filters) ([]ScoredDoc, error)
	Fetch(ctx context.Context, docIDs []string) ([]Document, error)
}

// Embedder computes a fixed-dimensionality embedding for each input text
// (spec.md §6.2).
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
