package evo

import (
	"math/rand"

	"github.com/quillhq/promptforge/internal/genome"
)

// Crossover combines p1 and p2 into one offspring: each boolean and
// string field is taken uniformly from one parent, each numeric field is
// the arithmetic mean of both parents (spec.md §4.3).
func Crossover(p1, p2 genome.Genome, generation int, rng *rand.Rand) (genome.Genome, error) {
	f1, f2 := p1.Fields(), p2.Fields()

	f := genome.Fields{
		Temp:          (f1.Temp + f2.Temp) / 2,
		MaxTokens:     (f1.MaxTokens + f2.MaxTokens) / 2,
		RetrieverTopK: (f1.RetrieverTopK + f2.RetrieverTopK) / 2,
	}

	if rng.Intn(2) == 0 {
		f.Rubric = f1.Rubric
	} else {
		f.Rubric = f2.Rubric
	}
	if rng.Intn(2) == 0 {
		f.CoT = f1.CoT
	} else {
		f.CoT = f2.CoT
	}
	if rng.Intn(2) == 0 {
		f.UseConsensus = f1.UseConsensus
	} else {
		f.UseConsensus = f2.UseConsensus
	}
	if rng.Intn(2) == 0 {
		f.ModelKey = f1.ModelKey
	} else {
		f.ModelKey = f2.ModelKey
	}

	return genome.New(f, generation)
}
