// Package router implements the Bandit-fronted Router (C15): the
// per-request flow that picks a genome via Thompson sampling, executes
// it, and feeds the resulting reward back into the bandit (spec.md
// §4.15).
package router

import (
	"context"
	"fmt"

	"github.com/quillhq/promptforge/internal/bandit"
	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/fitness"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

// Sink receives per-request router metrics. Defined here (consumer side)
// so internal/metrics can implement it without router depending on it.
type Sink interface {
	ObserveBanditUpdate(genomeID string, expectedValue float64)
}

// GenomeRegistry resolves a genome_id chosen by the bandit back to its
// full Genome, since the bandit itself only tracks ids (spec.md §3.3).
type GenomeRegistry interface {
	Genome(genomeID string) (genome.Genome, bool)
}

// Router ties the Bandit to the Executor for the live request path.
type Router struct {
	Bandit   *bandit.Bandit
	Executor *executor.Executor
	Registry GenomeRegistry
	Weights  *config.FitnessWeights
	Sink     Sink
	Baseline genome.Genome
	MinArms  int
}

// New constructs a Router and performs the cold-start check: if fewer
// than minArms arms are registered, the baseline genome is registered
// with the bandit's configured Beta(1,1) prior (spec.md §4.15: "Cold
// start: if fewer than P_min arms are registered, register the
// configured baseline genome").
func New(b *bandit.Bandit, exec *executor.Executor, registry GenomeRegistry, w *config.FitnessWeights, baseline genome.Genome, minArms int, sink Sink) *Router {
	r := &Router{
		Bandit:   b,
		Executor: exec,
		Registry: registry,
		Weights:  w,
		Sink:     sink,
		Baseline: baseline,
		MinArms:  minArms,
	}
	r.ensureColdStart()
	return r
}

func (r *Router) ensureColdStart() {
	if len(r.Bandit.Stats()) >= r.MinArms {
		return
	}
	r.Bandit.Register(r.Baseline.ID())
}

// Route runs one request through the bandit-fronted flow (spec.md §4.15
// steps 1-5):
//  1. g := Bandit.choose()
//  2. m := Executor.execute(spec, g)
//  3. reward := FitnessAggregator(m) clamped to [0,1]
//  4. Bandit.update(g.id, reward); emit metrics
//  5. Return the ExecutionMetrics. The generated text is not returned:
//     Executor.Execute reports only metrics, so the caller gets score,
//     latency, cost and tokens but not the completion itself.
func (r *Router) Route(ctx context.Context, spec genome.PromptSpec) (genome.ExecutionMetrics, error) {
	genomeID := r.Bandit.Choose()

	g, ok := r.Registry.Genome(genomeID)
	if !ok {
		return genome.ExecutionMetrics{}, fmt.Errorf("router: genome %s not found in registry", genomeID)
	}

	metrics := r.Executor.Execute(ctx, g, spec)

	reward := fitness.Score(metrics, r.Weights)
	if reward > 1.0 {
		reward = 1.0
	}
	r.Bandit.Update(genomeID, reward)

	if r.Sink != nil {
		for _, s := range r.Bandit.Stats() {
			if s.GenomeID == genomeID {
				r.Sink.ObserveBanditUpdate(genomeID, s.ExpectedValue)
				break
			}
		}
	}

	return metrics, nil
}
