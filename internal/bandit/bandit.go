// Package bandit implements a Thompson-sampling multi-armed bandit over
// genome ids, used by the Router to direct live traffic toward the
// better-performing members of a population (spec.md §4.5).
package bandit

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
)

// Stats is the read-only snapshot of one arm returned by Bandit.Stats,
// matching the GET /bandit/stats wire format (spec.md §4.5, §6.3).
type Stats struct {
	GenomeID      string  `json:"genome_id"`
	Pulls         uint64  `json:"pulls"`
	RewardSum     float64 `json:"reward_sum"`
	MeanReward    float64 `json:"mean_reward"`    // reward_sum / pulls, 0 if pulls == 0
	ExpectedValue float64 `json:"expected_value"` // alpha / (alpha + beta)
}

// arm holds one genome's posterior. Alpha/Beta/RewardSum are protected by
// mu; Pulls is additionally exposed via an atomic counter so readers can
// observe a monotone pull count without taking the lock (spec.md §4.5:
// "Reads MAY be racy but MUST observe monotone pulls").
type arm struct {
	mu        sync.Mutex
	alpha     float64
	beta      float64
	rewardSum float64
	pulls     atomic.Uint64
}

// Bandit is a registry of arms indexed by genome id, implementing
// Thompson sampling over independent Beta posteriors.
type Bandit struct {
	priorAlpha float64
	priorBeta  float64

	mu   sync.RWMutex
	arms map[string]*arm

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an empty Bandit with the given Beta prior, applied to every
// newly registered arm.
func New(priorAlpha, priorBeta float64, seed int64) *Bandit {
	return &Bandit{
		priorAlpha: priorAlpha,
		priorBeta:  priorBeta,
		arms:       make(map[string]*arm),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Register creates an arm for genomeID with the configured prior if one
// does not already exist. Registering an already-known genome is a no-op.
func (b *Bandit) Register(genomeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.arms[genomeID]; ok {
		return
	}
	b.arms[genomeID] = &arm{alpha: b.priorAlpha, beta: b.priorBeta}
}

// Choose samples θ_i ~ Beta(alpha_i, beta_i) for every registered arm and
// returns the genome id with the highest sample. Ties are broken by
// fewer pulls, then lexicographic genome id. Choose panics if no arms
// are registered; callers must Register at least one genome first.
func (b *Bandit) Choose() string {
	b.mu.RLock()
	ids := make([]string, 0, len(b.arms))
	arms := make([]*arm, 0, len(b.arms))
	for id, a := range b.arms {
		ids = append(ids, id)
		arms = append(arms, a)
	}
	b.mu.RUnlock()

	if len(ids) == 0 {
		panic("bandit: Choose called with no registered arms")
	}

	type candidate struct {
		id     string
		sample float64
		pulls  uint64
	}
	best := candidate{sample: math.Inf(-1)}

	for i, a := range arms {
		a.mu.Lock()
		alpha, beta := a.alpha, a.beta
		a.mu.Unlock()

		sample := b.sampleBeta(alpha, beta)
		pulls := a.pulls.Load()
		c := candidate{id: ids[i], sample: sample, pulls: pulls}

		switch {
		case c.sample > best.sample:
			best = c
		case c.sample == best.sample:
			if c.pulls < best.pulls || (c.pulls == best.pulls && c.id < best.id) {
				best = c
			}
		}
	}
	return best.id
}

// Update applies a clamped-to-[0,1] reward to genomeID's posterior:
// alpha += reward, beta += (1-reward), pulls += 1, reward_sum += reward.
// Update is a no-op (does not panic) for an unregistered genome id.
func (b *Bandit) Update(genomeID string, reward float64) {
	if reward < 0 {
		reward = 0
	} else if reward > 1 {
		reward = 1
	}

	b.mu.RLock()
	a, ok := b.arms[genomeID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	a.mu.Lock()
	a.alpha += reward
	a.beta += 1 - reward
	a.rewardSum += reward
	a.mu.Unlock()
	a.pulls.Add(1)
}

// Stats returns a stable-ordered (by genome id) snapshot of every
// registered arm.
func (b *Bandit) Stats() []Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Stats, 0, len(b.arms))
	for id, a := range b.arms {
		a.mu.Lock()
		alpha, beta, rewardSum := a.alpha, a.beta, a.rewardSum
		a.mu.Unlock()
		pulls := a.pulls.Load()
		meanReward := 0.0
		if pulls > 0 {
			meanReward = rewardSum / float64(pulls)
		}
		out = append(out, Stats{
			GenomeID:      id,
			Pulls:         pulls,
			RewardSum:     rewardSum,
			MeanReward:    meanReward,
			ExpectedValue: alpha / (alpha + beta),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenomeID < out[j].GenomeID })
	return out
}

// sampleBeta draws one sample from Beta(alpha, beta) via two Gamma
// draws (Beta(a,b) = X/(X+Y), X~Gamma(a,1), Y~Gamma(b,1)), serialized
// through rngMu since math/rand.Rand is not safe for concurrent use.
func (b *Bandit) sampleBeta(alpha, beta float64) float64 {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	x := b.sampleGamma(alpha)
	y := b.sampleGamma(beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// ArmSnapshot is the on-disk representation of one arm, used by
// Snapshot/Restore to persist and reload bandit state across restarts
// (spec.md §4.5, §6.5 bandit/snapshot.json).
type ArmSnapshot struct {
	GenomeID  string  `json:"genome_id"`
	Alpha     float64 `json:"alpha"`
	Beta      float64 `json:"beta"`
	Pulls     uint64  `json:"pulls"`
	RewardSum float64 `json:"reward_sum"`
}

// Snapshot returns every arm's full state (alpha, beta, pulls,
// reward_sum), sorted by genome id for a deterministic file diff.
func (b *Bandit) Snapshot() []ArmSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ArmSnapshot, 0, len(b.arms))
	for id, a := range b.arms {
		a.mu.Lock()
		alpha, beta, rewardSum := a.alpha, a.beta, a.rewardSum
		a.mu.Unlock()
		out = append(out, ArmSnapshot{
			GenomeID:  id,
			Alpha:     alpha,
			Beta:      beta,
			Pulls:     a.pulls.Load(),
			RewardSum: rewardSum,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenomeID < out[j].GenomeID })
	return out
}

// Restore replaces the bandit's arm table with snaps, overwriting any
// arms already registered. Used on startup to resume from a persisted
// snapshot instead of starting fresh.
func (b *Bandit) Restore(snaps []ArmSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.arms = make(map[string]*arm, len(snaps))
	for _, s := range snaps {
		a := &arm{alpha: s.Alpha, beta: s.Beta, rewardSum: s.RewardSum}
		a.pulls.Store(s.Pulls)
		b.arms[s.GenomeID] = a
	}
}

// UpdateCount returns the total number of pulls across all arms,
// including pulls restored by Restore. Nothing in this module calls it:
// the serve and daemon commands write a bandit snapshot only on shutdown,
// and BanditConfig.SnapshotEvery is validated but not read.
func (b *Bandit) UpdateCount() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total uint64
	for _, a := range b.arms {
		total += a.pulls.Load()
	}
	return total
}

// sampleGamma draws one sample from Gamma(shape, 1) using Marsaglia and
// Tsang's method, valid for shape > 0 (boosted via the standard
// shape+1/u^(1/shape) trick when shape < 1).
func (b *Bandit) sampleGamma(shape float64) float64 {
	if shape < 1 {
		u := b.rng.Float64()
		return b.sampleGamma(shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := b.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := b.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
