package evo

import (
	"math/rand"
	"sort"

	"github.com/quillhq/promptforge/internal/fitness"
	"github.com/quillhq/promptforge/internal/genome"
)

// scored pairs a genome with its aggregate fitness result, the unit the
// selection operators work over.
type scored struct {
	Genome genome.Genome
	Result fitness.Result
}

// Tournament runs one tournament of size t over pop/results and returns
// the winner: the entrant with the highest fitness, ties broken by
// fitness.Better (spec.md §4.3: "Tournament of size t = max(2, P/4);
// winner = highest fitness, ties by 4.2's rules").
func Tournament(pop []genome.Genome, results map[string]fitness.Result, t int, rng *rand.Rand) genome.Genome {
	if len(pop) == 0 {
		panic("evo: tournament over empty population")
	}
	if t < 1 {
		t = 1
	}

	best := pop[rng.Intn(len(pop))]
	bestResult := results[best.ID()]

	for i := 1; i < t; i++ {
		cand := pop[rng.Intn(len(pop))]
		candResult := results[cand.ID()]
		if fitness.Better(candResult, bestResult) {
			best = cand
			bestResult = candResult
		}
	}
	return best
}

// Elites returns the top e genomes in pop by fitness, using
// fitness.Rank's tie-break order (spec.md §4.3).
func Elites(pop []genome.Genome, results map[string]fitness.Result, e int) []genome.Genome {
	if e > len(pop) {
		e = len(pop)
	}

	ranked := make([]scored, len(pop))
	for i, g := range pop {
		ranked[i] = scored{Genome: g, Result: results[g.ID()]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return fitness.Better(ranked[i].Result, ranked[j].Result)
	})

	out := make([]genome.Genome, e)
	for i := 0; i < e; i++ {
		out[i] = ranked[i].Genome
	}
	return out
}

// ElitCount returns max(1, P/6), the default elite size (spec.md §6.6).
func ElitCount(p int) int {
	e := p / 6
	if e < 1 {
		return 1
	}
	return e
}

// TournamentSize returns max(2, P/4), the default tournament size
// (spec.md §6.6).
func TournamentSize(p int) int {
	t := p / 4
	if t < 2 {
		return 2
	}
	return t
}
