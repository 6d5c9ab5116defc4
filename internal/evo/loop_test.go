package evo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/internal/persistence"
	"github.com/quillhq/promptforge/pkg/config"
)

type perfectGenerator struct{}

func (perfectGenerator) Generate(context.Context, executor.GenerateRequest) (executor.GenerateResponse, error) {
	return executor.GenerateResponse{Texts: []string{"the correct answer"}, TokensOut: 1}, nil
}

func testGoldenSet() []genome.GoldenExample {
	return []genome.GoldenExample{
		{Prompt: "what is 2+2", Expected: "the correct answer", Intent: "qa", QualityScore: 1},
		{Prompt: "say hi", Expected: "the correct answer", Intent: "qa", QualityScore: 1},
	}
}

func TestRun_Execute_ProducesOneRecordPerGenerationUntilEarlyStop(t *testing.T) {
	exec := executor.New(perfectGenerator{}, nil, &config.ExecutorConfig{
		TimeoutMS: 1000, MaxRepairs: 0, RetryScheduleMS: []int{1},
	})
	dir := t.TempDir()
	history, err := persistence.OpenHistoryLog(dir, "run-1")
	require.NoError(t, err)

	run := &Run{
		Executor: exec,
		Cfg: &config.PopulationConfig{
			Size: 6, Generations: 5, Elite: 1, TournamentT: 2,
			PCrossover: 0.5, EarlyStop: 2.0, // unreachable: forces full run
			ModelKeys: []string{"gpt-small", "gpt-large"}, Seed: 1,
		},
		Weights:   &config.FitnessWeights{Latency: 1e-3, Tokens: 5e-4, Repairs: 0.2, Cost: 0.5},
		History:   history,
		GoldenSet: testGoldenSet(),
	}

	base := baseGenome(t)
	outcome, err := run.Execute(context.Background(), base)
	require.NoError(t, err)
	assert.Len(t, outcome.Records, 5)

	records, err := history.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 5)
	for i, r := range records {
		assert.Equal(t, i, r.Generation)
	}
}

func TestRun_Execute_StopsEarlyWhenThresholdReached(t *testing.T) {
	exec := executor.New(perfectGenerator{}, nil, &config.ExecutorConfig{
		TimeoutMS: 1000, MaxRepairs: 0, RetryScheduleMS: []int{1},
	})

	run := &Run{
		Executor: exec,
		Cfg: &config.PopulationConfig{
			Size: 4, Generations: 10, Elite: 1, TournamentT: 2,
			PCrossover: 0.5, EarlyStop: 0.0, // trivially satisfied by any non-negative fitness
			ModelKeys: []string{"gpt-small"}, Seed: 2,
		},
		Weights:   &config.FitnessWeights{Latency: 1e-3, Tokens: 5e-4, Repairs: 0.2, Cost: 0.5},
		GoldenSet: testGoldenSet(),
	}

	base := baseGenome(t)
	outcome, err := run.Execute(context.Background(), base)
	require.NoError(t, err)
	assert.Len(t, outcome.Records, 1)
	assert.NotEmpty(t, outcome.Best.ID())
}
