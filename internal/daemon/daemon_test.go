package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/promptforge/internal/evo"
	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/config"
)

type perfectGenerator struct{}

func (perfectGenerator) Generate(context.Context, executor.GenerateRequest) (executor.GenerateResponse, error) {
	return executor.GenerateResponse{Texts: []string{"ok"}, TokensOut: 1}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []PromotionEvent
}

func (r *recordingSink) Promote(e PromotionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testBase(t *testing.T) genome.Genome {
	g, err := genome.New(genome.Fields{Rubric: "x", Temp: 0.5, MaxTokens: 100, ModelKey: "gpt-small"}, 0)
	require.NoError(t, err)
	return g
}

func newRunFactory(t *testing.T) func(string) (*evo.Run, error) {
	exec := executor.New(perfectGenerator{}, nil, &config.ExecutorConfig{
		TimeoutMS: 1000, MaxRepairs: 0, RetryScheduleMS: []int{1},
	})
	return func(string) (*evo.Run, error) {
		return &evo.Run{
			Executor: exec,
			Cfg: &config.PopulationConfig{
				Size: 4, Generations: 1, Elite: 1, TournamentT: 2,
				PCrossover: 0.5, EarlyStop: 2.0, ModelKeys: []string{"gpt-small"}, Seed: 1,
			},
			Weights:   &config.FitnessWeights{Latency: 1e-3, Tokens: 5e-4, Repairs: 0.2, Cost: 0.5},
			GoldenSet: []genome.GoldenExample{{Prompt: "p", Expected: "ok", Intent: "qa", QualityScore: 1}},
		}, nil
	}
}

func TestDaemon_RunFactoryError_AbortsCycleWithoutPromoting(t *testing.T) {
	sink := &recordingSink{}
	failingFactory := func(string) (*evo.Run, error) { return nil, assertErr{} }
	d := New(&config.DaemonConfig{IntervalSeconds: 3600, PromotionDelta: 0.0}, testBase(t), failingFactory, func() float64 { return 0.0 }, sink)

	d.Start(context.Background())
	d.TriggerNow()
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	assert.Equal(t, 0, sink.count())
}

type assertErr struct{}

func (assertErr) Error() string { return "golden set load failed" }

func TestDaemon_TriggerNow_RunsACycleAndCallsPromotionGate(t *testing.T) {
	sink := &recordingSink{}
	d := New(&config.DaemonConfig{IntervalSeconds: 3600, PromotionDelta: 10.0}, testBase(t), newRunFactory(t), func() float64 { return 0.0 }, sink)

	d.Start(context.Background())
	d.TriggerNow()
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	// PromotionDelta of 10.0 can never be crossed by a [0,1] fitness score.
	assert.Equal(t, 0, sink.count())
}

func TestDaemon_PromotionGate_FiresWhenDeltaIsMet(t *testing.T) {
	sink := &recordingSink{}
	d := New(&config.DaemonConfig{IntervalSeconds: 3600, PromotionDelta: 0.0}, testBase(t), newRunFactory(t), func() float64 { return 0.0 }, sink)

	d.Start(context.Background())
	d.TriggerNow()
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	assert.GreaterOrEqual(t, sink.count(), 1)
}

func TestDaemon_StopIsIdempotent(t *testing.T) {
	d := New(&config.DaemonConfig{IntervalSeconds: 3600, PromotionDelta: 0.05}, testBase(t), newRunFactory(t), nil, nil)
	d.Start(context.Background())
	d.Stop()
	assert.NotPanics(t, func() { d.Stop() })
}
