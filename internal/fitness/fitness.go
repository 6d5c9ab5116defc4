// Package fitness reduces an ExecutionMetrics sample to a scalar score
// and aggregates per-example scores into a genome-level fitness
// (spec.md §4.2). It is a pure-function package: no hidden state, fully
// deterministic given its inputs.
package fitness

import (
	"sort"

	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

const (
	minValidatorScore = 0.9
	minAccuracy       = 0.85
)

// Score computes the scalar fitness of a single ExecutionMetrics sample
// under weights w:
//
//	ok      = schema_ok AND safety_flags == ∅ AND validator_score >= 0.9 AND accuracy >= 0.85
//	base    = 1.0 if ok else 0.0
//	penalty = w_lat*latency_ms + w_tok*tokens_total + w_rep*repairs + w_cost*cost_usd
//	fitness = max(0.0, base - penalty)
func Score(m genome.ExecutionMetrics, w *config.FitnessWeights) float64 {
	ok := m.SchemaOK && m.Safe() && m.ValidatorScore >= minValidatorScore && m.Accuracy >= minAccuracy

	base := 0.0
	if ok {
		base = 1.0
	}

	penalty := w.Latency*m.LatencyMS +
		w.Tokens*float64(m.TokensTotal) +
		w.Repairs*float64(m.Repairs) +
		w.Cost*m.CostUSD

	fitness := base - penalty
	if fitness < 0.0 {
		return 0.0
	}
	return fitness
}

// Sample is one ExecutionMetrics observation paired with its scalar
// fitness, used as Aggregate's working unit.
type Sample struct {
	Metrics genome.ExecutionMetrics
	Fitness float64
}

// Result is a genome's aggregate fitness across a golden set: the mean
// per-example fitness plus the statistics needed to break ties between
// genomes of equal mean fitness (spec.md §4.2: "tie-break by lower mean
// latency, then lower mean cost, then earliest creation").
type Result struct {
	GenomeID    string
	MeanFitness float64
	MeanLatency float64
	MeanCost    float64
	CreatedAt   int64 // logical creation order (e.g. generation*population+index), lower is earlier
	Samples     []Sample
}

// Aggregate scores every metrics sample in ms under w and averages them
// into a Result for genomeID. createdAt is an opaque, monotonically
// increasing tie-break key supplied by the caller (the population loop
// passes generation*population+index for each evaluation).
func Aggregate(genomeID string, ms []genome.ExecutionMetrics, w *config.FitnessWeights, createdAt int64) Result {
	samples := make([]Sample, len(ms))
	var sumFitness, sumLatency, sumCost float64
	for i, m := range ms {
		f := Score(m, w)
		samples[i] = Sample{Metrics: m, Fitness: f}
		sumFitness += f
		sumLatency += m.LatencyMS
		sumCost += m.CostUSD
	}

	n := float64(len(ms))
	result := Result{GenomeID: genomeID, CreatedAt: createdAt, Samples: samples}
	if n > 0 {
		result.MeanFitness = sumFitness / n
		result.MeanLatency = sumLatency / n
		result.MeanCost = sumCost / n
	}
	return result
}

// Better reports whether a ranks strictly ahead of b under the tie-break
// order: higher mean fitness, then lower mean latency, then lower mean
// cost, then earlier creation.
func Better(a, b Result) bool {
	if a.MeanFitness != b.MeanFitness {
		return a.MeanFitness > b.MeanFitness
	}
	if a.MeanLatency != b.MeanLatency {
		return a.MeanLatency < b.MeanLatency
	}
	if a.MeanCost != b.MeanCost {
		return a.MeanCost < b.MeanCost
	}
	return a.CreatedAt < b.CreatedAt
}

// Rank sorts results from best to worst using the Better tie-break
// order, in place, and also returns the sorted slice for convenience.
func Rank(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return Better(results[i], results[j])
	})
	return results
}
