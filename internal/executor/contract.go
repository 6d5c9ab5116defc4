// Package executor implements the Executor contract (C6): a pure
// function of (Genome, PromptSpec, external generator+retriever) that
// produces an ExecutionMetrics sample, never raising errors into the
// population loop (spec.md §4.6).
package executor

import (
	"context"

	"github.com/quillhq/promptforge/internal/genome"
)

// GenerateRequest is the Go-side representation of one generator call
// (spec.md §6.1).
type GenerateRequest struct {
	ModelKey    string
	Prompt      string
	Temperature float64
	MaxTokens   int
	NSamples    int // consensus_samples: 3 if genome.use_consensus else 1
}

// GenerateResponse is the generator's reply: one text per requested
// sample, plus token and cost accounting.
type GenerateResponse struct {
	Texts     []string
	TokensIn  int
	TokensOut int
	CostUSD   float64
}

// Generator is the Go-side interface for calling an LLM generation
// backend. Implementations decide their own transport (HTTP, gRPC, an
// in-process stub); the Executor only depends on this interface.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Validator scores one (spec, output_text) pair in [0,1] on criteria
// independent of a golden "expected" answer — e.g. length, keyword
// overlap, schema presence (spec.md §6.1).
type Validator interface {
	Score(spec genome.PromptSpec, outputText string) float64
}

// Comparator scores an output against an expected answer in [0,1],
// using an intent-specific strategy (exact match, token-F1, execution
// equivalence) (spec.md §6.1, §4.6 step 6).
type Comparator interface {
	Compare(expected, outputText, intent string) float64
}

// Safety flags an output for policy violations (spec.md §6.1).
type Safety interface {
	Flags(outputText string) []string
}

// Retriever is the subset of the RAG facade the Executor depends on:
// fetching top-k context for a prompt (spec.md §4.6 step 2).
type Retriever interface {
	Query(ctx context.Context, query string, k int) ([]RetrievedText, error)
}

// RetrievedText is the minimal shape the Executor needs from a
// retrieval result: just the text to splice into the prompt.
type RetrievedText struct {
	DocID string
	Text  string
}
