package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/bandit"
	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, executor.GenerateRequest) (executor.GenerateResponse, error) {
	return executor.GenerateResponse{Texts: []string{"hello there friend"}, TokensOut: 1}, nil
}

type mapRegistry map[string]genome.Genome

func (m mapRegistry) Genome(id string) (genome.Genome, bool) {
	g, ok := m[id]
	return g, ok
}

func testExecutor() *executor.Executor {
	return executor.New(stubGenerator{}, nil, &config.ExecutorConfig{
		TimeoutMS: 1000, MaxRepairs: 0, RetryScheduleMS: []int{1},
	})
}

func TestNew_ColdStartRegistersBaselineWhenBelowMinArms(t *testing.T) {
	baseline, err := genome.New(genome.Fields{Rubric: "x", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)

	b := bandit.New(1, 1, 1)
	r := New(b, testExecutor(), mapRegistry{baseline.ID(): baseline}, &config.FitnessWeights{}, baseline, 1, nil)

	stats := r.Bandit.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, baseline.ID(), stats[0].GenomeID)
}

func TestRoute_ChoosesExecutesAndUpdatesBandit(t *testing.T) {
	baseline, err := genome.New(genome.Fields{Rubric: "x", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)

	b := bandit.New(1, 1, 1)
	r := New(b, testExecutor(), mapRegistry{baseline.ID(): baseline}, &config.FitnessWeights{Latency: 1e-3, Tokens: 5e-4, Repairs: 0.2, Cost: 0.5}, baseline, 1, nil)

	metrics, err := r.Route(context.Background(), genome.PromptSpec{Intent: "qa", Prompt: "hi"})
	require.NoError(t, err)
	assert.True(t, metrics.SchemaOK)

	stats := r.Bandit.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(1), stats[0].Pulls)
}

func TestRoute_UnknownGenomeReturnsError(t *testing.T) {
	baseline, err := genome.New(genome.Fields{Rubric: "x", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)

	b := bandit.New(1, 1, 1)
	r := New(b, testExecutor(), mapRegistry{}, &config.FitnessWeights{}, baseline, 1, nil)

	_, err = r.Route(context.Background(), genome.PromptSpec{Intent: "qa", Prompt: "hi"})
	assert.Error(t, err)
}
