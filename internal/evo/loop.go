package evo

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/fitness"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/internal/persistence"
	"github.com/quillhq/promptforge/pkg/config"
)

// defaultEvalWorkers bounds concurrent genome-example evaluations within
// one generation (spec.md §5: "bounded worker pool (default 8)").
const defaultEvalWorkers = 8

// Run is one Population Loop execution (C4): seed, then for each
// generation evaluate against goldenSet, log a GenerationRecord, and
// either stop early or produce the next generation via elitism +
// tournament + crossover + mutation (spec.md §4.4).
type Run struct {
	Executor   *executor.Executor
	Cfg        *config.PopulationConfig
	Weights    *config.FitnessWeights
	History    *persistence.HistoryLog
	Generator  executor.Generator // optional, used only by the rewrite_rubric mutation
	GoldenSet  []genome.GoldenExample
	EvalWorkers int
}

// Outcome is the Population Loop's return value: the best genome seen
// across the whole run and every GenerationRecord appended.
type Outcome struct {
	Best    genome.Genome
	Records []persistence.GenerationRecord
}

// Execute runs the loop starting from base, seeding Cfg.Size genomes and
// iterating up to Cfg.Generations times.
func (r *Run) Execute(ctx context.Context, base genome.Genome) (Outcome, error) {
	rng := rand.New(rand.NewSource(r.Cfg.Seed))

	pop, err := Seed(base, r.Cfg.Size, r.Cfg.ModelKeys, rng)
	if err != nil {
		return Outcome{}, fmt.Errorf("evo: seed: %w", err)
	}

	elite := r.Cfg.Elite
	if elite <= 0 {
		elite = ElitCount(r.Cfg.Size)
	}
	tournamentT := r.Cfg.TournamentT
	if tournamentT <= 0 {
		tournamentT = TournamentSize(r.Cfg.Size)
	}
	workers := r.EvalWorkers
	if workers <= 0 {
		workers = defaultEvalWorkers
	}

	var outcome Outcome
	var bestResult fitness.Result
	haveBest := false

	for gen := 0; gen < r.Cfg.Generations; gen++ {
		results, err := r.evaluate(ctx, pop, workers, int64(gen)*int64(r.Cfg.Size))
		if err != nil {
			return Outcome{}, err
		}

		ranked := fitness.Rank(resultSlice(results))
		record := persistence.GenerationRecord{
			Generation:   gen,
			BestScore:    ranked[0].MeanFitness,
			MeanScore:    meanFitness(ranked),
			BestGenomeID: ranked[0].GenomeID,
			Timestamp:    int64(gen), // logical clock; caller may post-process to wall time
		}
		if r.History != nil {
			if err := r.History.Append(record); err != nil {
				return Outcome{}, fmt.Errorf("evo: append history: %w", err)
			}
		}
		outcome.Records = append(outcome.Records, record)

		if !haveBest || fitness.Better(ranked[0], bestResult) {
			bestResult = ranked[0]
			haveBest = true
			for _, g := range pop {
				if g.ID() == ranked[0].GenomeID {
					outcome.Best = g
					break
				}
			}
		}

		if record.BestScore >= r.Cfg.EarlyStop {
			break
		}

		pop = r.nextGeneration(ctx, pop, results, elite, tournamentT, gen+1, rng)
	}

	return outcome, nil
}

// evaluate runs the Executor over every (genome, golden example) pair
// concurrently, bounded to workers in flight, and aggregates each
// genome's samples into a fitness.Result (spec.md §4.6, §5).
func (r *Run) evaluate(ctx context.Context, pop []genome.Genome, workers int, baseCreatedAt int64) (map[string]fitness.Result, error) {
	type job struct {
		genomeIdx int
		genome    genome.Genome
	}

	metrics := make([][]genome.ExecutionMetrics, len(pop))
	for i := range metrics {
		metrics[i] = make([]genome.ExecutionMetrics, len(r.GoldenSet))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for gi, genomeItem := range pop {
		for ei, example := range r.GoldenSet {
			gi, genomeItem, ei, example := gi, genomeItem, ei, example
			g.Go(func() error {
				spec := genome.PromptSpec{
					Intent:   example.Intent,
					Prompt:   example.Prompt,
					Expected: example.Expected,
				}
				metrics[gi][ei] = r.Executor.Execute(gctx, genomeItem, spec)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evo: evaluate: %w", err)
	}

	results := make(map[string]fitness.Result, len(pop))
	for i, genomeItem := range pop {
		results[genomeItem.ID()] = fitness.Aggregate(genomeItem.ID(), metrics[i], r.Weights, baseCreatedAt+int64(i))
	}
	return results, nil
}

// nextGeneration builds generation+1's population: elites survive
// unchanged, the rest are filled by crossover-then-mutate (or
// mutate-alone with probability 1-p_crossover) offspring of tournament
// winners (spec.md §4.4).
func (r *Run) nextGeneration(ctx context.Context, pop []genome.Genome, results map[string]fitness.Result, elite, tournamentT, generation int, rng *rand.Rand) []genome.Genome {
	next := Elites(pop, results, elite)

	for len(next) < len(pop) {
		p1 := Tournament(pop, results, tournamentT, rng)
		p2 := Tournament(pop, results, tournamentT, rng)

		var child genome.Genome
		var err error
		if rng.Float64() < r.Cfg.PCrossover {
			child, err = Crossover(p1, p2, generation, rng)
		} else {
			child = p1.WithGeneration(generation)
		}
		if err == nil {
			child, err = Mutate(ctx, child, generation, r.Cfg.ModelKeys, r.Generator, rng)
		}
		if err != nil {
			continue // a malformed offspring is dropped; the loop retries with a fresh draw
		}
		next = append(next, child)
	}
	return next
}

func resultSlice(m map[string]fitness.Result) []fitness.Result {
	out := make([]fitness.Result, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	return out
}

func meanFitness(ranked []fitness.Result) float64 {
	if len(ranked) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ranked {
		sum += r.MeanFitness
	}
	return sum / float64(len(ranked))
}
