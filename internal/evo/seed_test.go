package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/genome"
)

func baseGenome(t *testing.T) genome.Genome {
	t.Helper()
	g, err := genome.New(genome.Fields{
		Rubric: "Answer concisely.", Temp: 0.7, MaxTokens: 512,
		RetrieverTopK: 3, ModelKey: "gpt-small",
	}, 0)
	require.NoError(t, err)
	return g
}

func TestSeed_ProducesRequestedCountWithBaseIncluded(t *testing.T) {
	base := baseGenome(t)
	rng := rand.New(rand.NewSource(1))

	pop, err := Seed(base, 12, []string{"gpt-small", "gpt-large"}, rng)
	require.NoError(t, err)
	require.Len(t, pop, 12)

	foundBase := false
	for _, g := range pop {
		if g.Equal(base) {
			foundBase = true
		}
	}
	assert.True(t, foundBase, "at least one seed must equal the base genome verbatim")
}

func TestSeed_AllGenomesWithinValidRanges(t *testing.T) {
	base := baseGenome(t)
	rng := rand.New(rand.NewSource(2))

	pop, err := Seed(base, 20, []string{"gpt-small"}, rng)
	require.NoError(t, err)
	for _, g := range pop {
		assert.GreaterOrEqual(t, g.Temp, 0.0)
		assert.LessOrEqual(t, g.Temp, 2.0)
		assert.GreaterOrEqual(t, g.MaxTokens, 1)
		assert.LessOrEqual(t, g.MaxTokens, 8192)
	}
}

func TestSeed_IsDeterministicForFixedSeed(t *testing.T) {
	base := baseGenome(t)

	pop1, err := Seed(base, 8, []string{"gpt-small", "gpt-large"}, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	pop2, err := Seed(base, 8, []string{"gpt-small", "gpt-large"}, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	for i := range pop1 {
		assert.Equal(t, pop1[i].ID(), pop2[i].ID())
	}
}
