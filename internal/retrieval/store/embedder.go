package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// StubEmbedder is a deterministic, hash-based pseudo-embedding used as
// the safe default when no real embedding model is configured, and by
// tests that need the hybrid retriever's determinism property without a
// live embedding service (spec.md §4.7/4.8 [FULL]). It is NOT a semantic
// embedding — repeated hashing expands a SHA-256 digest into a fixed
// number of pseudo-random floats derived only from the input text, so
// identical text always yields the identical vector.
type StubEmbedder struct {
	Dimensions int
}

// NewStubEmbedder returns a StubEmbedder with the given fixed
// dimensionality.
func NewStubEmbedder(dimensions int) *StubEmbedder {
	return &StubEmbedder{Dimensions: dimensions}
}

// Embed computes one pseudo-embedding per input text.
func (e *StubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embedOne(t)
	}
	return out, nil
}

func (e *StubEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.Dimensions)
	seed := []byte(text)
	for i := 0; i < e.Dimensions; i++ {
		h := sha256.Sum256(append(seed, byte(i), byte(i>>8)))
		u := binary.BigEndian.Uint32(h[:4])
		// map to [-1, 1]
		vec[i] = float32(u)/float32(1<<31) - 1
	}
	return vec
}
