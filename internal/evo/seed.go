// Package evo implements the Genetic Operators (C3) and Population Loop
// (C4): seeding, mutation, crossover, tournament selection, elitism, and
// the generational loop that drives them (spec.md §4.3, §4.4).
package evo

import (
	"math/rand"

	"github.com/quillhq/promptforge/internal/genome"
)

// clip bounds v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Seed produces n diverse genomes from base by perturbing each identity
// field independently: temperature by N(0, 0.15) clipped to [0, 2],
// max_tokens by up to ±25%, booleans flipped with probability 0.3, and
// model_key cycled through modelKeys. At least one seed equals base
// verbatim (spec.md §4.3).
func Seed(base genome.Genome, n int, modelKeys []string, rng *rand.Rand) ([]genome.Genome, error) {
	out := make([]genome.Genome, 0, n)

	baseGenome, err := genome.New(base.Fields(), 0)
	if err != nil {
		return nil, err
	}
	out = append(out, baseGenome)

	for len(out) < n {
		f := base.Fields()

		f.Temp = clip(f.Temp+rng.NormFloat64()*0.15, 0.0, 2.0)

		delta := 1.0 + (rng.Float64()*0.5 - 0.25) // ±25%
		f.MaxTokens = clampInt(int(float64(f.MaxTokens)*delta), 1, 8192)

		if rng.Float64() < 0.3 {
			f.CoT = !f.CoT
		}
		if rng.Float64() < 0.3 {
			f.UseConsensus = !f.UseConsensus
		}
		if len(modelKeys) > 0 {
			f.ModelKey = modelKeys[len(out)%len(modelKeys)]
		}

		g, err := genome.New(f, 0)
		if err != nil {
			continue // perturbation pushed a field out of range; retry with a fresh draw
		}
		out = append(out, g)
	}

	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
