package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/genome"
)

func TestCrossover_NumericFieldsAreArithmeticMean(t *testing.T) {
	p1, err := genome.New(genome.Fields{Rubric: "a", Temp: 0.0, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)
	p2, err := genome.New(genome.Fields{Rubric: "b", Temp: 2.0, MaxTokens: 300, ModelKey: "gpt-large"}, 0)
	require.NoError(t, err)

	child, err := Crossover(p1, p2, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, child.Temp, 1e-9)
	assert.Equal(t, 200, child.MaxTokens)
	assert.Equal(t, 1, child.Generation)
}

func TestCrossover_StringFieldsComeFromOneParentOrTheOther(t *testing.T) {
	p1, err := genome.New(genome.Fields{Rubric: "a", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)
	p2, err := genome.New(genome.Fields{Rubric: "b", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-large"}, 0)
	require.NoError(t, err)

	child, err := Crossover(p1, p2, 1, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, child.Rubric)
	assert.Contains(t, []string{"gpt-small", "gpt-large"}, child.ModelKey)
}
