package bandit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IsIdempotent(t *testing.T) {
	b := New(1, 1, 42)
	b.Register("g1")
	b.Register("g1")
	stats := b.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(0), stats[0].Pulls)
	assert.Equal(t, 0.5, stats[0].ExpectedValue)
}

func TestUpdate_ClampsRewardAndAccumulates(t *testing.T) {
	b := New(1, 1, 42)
	b.Register("g1")

	b.Update("g1", 2.0)  // clamps to 1
	b.Update("g1", -1.0) // clamps to 0

	stats := b.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(2), stats[0].Pulls)
	assert.Equal(t, 1.0, stats[0].RewardSum)
	assert.Equal(t, 0.5, stats[0].MeanReward)
	// alpha = 1+1+0 = 2, beta = 1+0+1 = 2 -> expected value 0.5
	assert.InDelta(t, 0.5, stats[0].ExpectedValue, 1e-9)
}

func TestStats_MeanRewardIsZeroWithNoPulls(t *testing.T) {
	b := New(1, 1, 42)
	b.Register("g1")
	stats := b.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 0.0, stats[0].MeanReward)
}

func TestUpdate_UnregisteredArmIsNoop(t *testing.T) {
	b := New(1, 1, 42)
	b.Update("missing", 1.0)
	assert.Empty(t, b.Stats())
}

func TestChoose_PicksFromRegisteredArms(t *testing.T) {
	b := New(1, 1, 7)
	b.Register("a")
	b.Register("b")
	b.Register("c")

	choice := b.Choose()
	assert.Contains(t, []string{"a", "b", "c"}, choice)
}

func TestChoose_ConvergesTowardHigherRewardArm(t *testing.T) {
	b := New(1, 1, 123)
	b.Register("good")
	b.Register("bad")

	for i := 0; i < 200; i++ {
		b.Update("good", 1.0)
		b.Update("bad", 0.0)
	}

	counts := map[string]int{}
	for i := 0; i < 100; i++ {
		counts[b.Choose()]++
	}
	assert.Greater(t, counts["good"], counts["bad"])
}

func TestSnapshotRestore_RoundTrips(t *testing.T) {
	b := New(1, 1, 1)
	b.Register("g1")
	b.Update("g1", 0.7)

	snap := b.Snapshot()

	restored := New(1, 1, 2)
	restored.Restore(snap)

	assert.Equal(t, b.Stats(), restored.Stats())
}

func TestUpdate_ConcurrentCallsAreAtomicPerArm(t *testing.T) {
	b := New(1, 1, 9)
	b.Register("g1")

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Update("g1", 1.0)
		}()
	}
	wg.Wait()

	stats := b.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(500), stats[0].Pulls)
	assert.Equal(t, 500.0, stats[0].RewardSum)
}
