package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

func defaultWeights() *config.FitnessWeights {
	return config.DefaultFitnessWeights()
}

func TestScore_OkSampleWithNoPenalty(t *testing.T) {
	m := genome.ExecutionMetrics{
		SchemaOK:       true,
		ValidatorScore: 0.95,
		Accuracy:       0.9,
	}
	assert.Equal(t, 1.0, Score(m, defaultWeights()))
}

func TestScore_WorkedExample(t *testing.T) {
	w := &config.FitnessWeights{Latency: 1e-3, Tokens: 5e-4, Repairs: 0.2, Cost: 0.5}
	m := genome.ExecutionMetrics{
		SchemaOK:       true,
		ValidatorScore: 0.95,
		Accuracy:       0.9,
		LatencyMS:      500,
		TokensTotal:    300,
		Repairs:        1,
		CostUSD:        0.02,
	}
	// penalty = 1e-3*500 + 5e-4*300 + 0.2*1 + 0.5*0.02 = 0.5 + 0.15 + 0.2 + 0.01 = 0.86
	got := Score(m, w)
	require.InDelta(t, 0.14, got, 1e-9)
}

func TestScore_FailsSchemaOrSafetyOrThresholds(t *testing.T) {
	cases := []genome.ExecutionMetrics{
		{SchemaOK: false, ValidatorScore: 1, Accuracy: 1},
		{SchemaOK: true, SafetyFlags: []string{"pii"}, ValidatorScore: 1, Accuracy: 1},
		{SchemaOK: true, ValidatorScore: 0.89, Accuracy: 1},
		{SchemaOK: true, ValidatorScore: 1, Accuracy: 0.84},
	}
	for _, m := range cases {
		assert.Equal(t, 0.0, Score(m, defaultWeights()))
	}
}

func TestScore_NeverNegative(t *testing.T) {
	m := genome.ExecutionMetrics{SchemaOK: false, LatencyMS: 1e9, TokensTotal: 1e9, Repairs: 100, CostUSD: 1000}
	assert.Equal(t, 0.0, Score(m, defaultWeights()))
}

func TestBetter_TieBreakOrder(t *testing.T) {
	a := Result{MeanFitness: 0.8, MeanLatency: 100, MeanCost: 1, CreatedAt: 2}
	b := Result{MeanFitness: 0.8, MeanLatency: 50, MeanCost: 1, CreatedAt: 1}
	assert.True(t, Better(b, a), "lower mean latency wins on fitness tie")

	c := Result{MeanFitness: 0.8, MeanLatency: 50, MeanCost: 2, CreatedAt: 1}
	d := Result{MeanFitness: 0.8, MeanLatency: 50, MeanCost: 1, CreatedAt: 5}
	assert.True(t, Better(d, c), "lower mean cost wins on fitness+latency tie")

	e := Result{MeanFitness: 0.8, MeanLatency: 50, MeanCost: 1, CreatedAt: 2}
	f := Result{MeanFitness: 0.8, MeanLatency: 50, MeanCost: 1, CreatedAt: 1}
	assert.True(t, Better(f, e), "earlier creation wins on full tie")
}

func TestRank_SortsDescendingByFitness(t *testing.T) {
	results := []Result{
		{GenomeID: "low", MeanFitness: 0.2},
		{GenomeID: "high", MeanFitness: 0.9},
		{GenomeID: "mid", MeanFitness: 0.5},
	}
	ranked := Rank(results)
	assert.Equal(t, []string{"high", "mid", "low"}, []string{ranked[0].GenomeID, ranked[1].GenomeID, ranked[2].GenomeID})
}

func TestAggregate_AveragesAcrossSamples(t *testing.T) {
	w := defaultWeights()
	ms := []genome.ExecutionMetrics{
		{SchemaOK: true, ValidatorScore: 1, Accuracy: 1},
		{SchemaOK: false},
	}
	result := Aggregate("g1", ms, w, 0)
	assert.InDelta(t, 0.5, result.MeanFitness, 1e-9)
	assert.Len(t, result.Samples, 2)
}
