package config

import "fmt"

// Validator validates configuration comprehensively with clear error
// messages, failing fast at the first invalid section.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at
// the first error).
func (v *Validator) ValidateAll() error {
	if err := v.validatePopulation(); err != nil {
		return fmt.Errorf("population validation failed: %w", err)
	}
	if err := v.validateFitness(); err != nil {
		return fmt.Errorf("fitness validation failed: %w", err)
	}
	if err := v.validateExecutor(); err != nil {
		return fmt.Errorf("executor validation failed: %w", err)
	}
	if err := v.validateRetrieval(); err != nil {
		return fmt.Errorf("retrieval validation failed: %w", err)
	}
	if err := v.validateCache(); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}
	if err := v.validateBandit(); err != nil {
		return fmt.Errorf("bandit validation failed: %w", err)
	}
	if err := v.validateDaemon(); err != nil {
		return fmt.Errorf("daemon validation failed: %w", err)
	}
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := v.validatePersistence(); err != nil {
		return fmt.Errorf("persistence validation failed: %w", err)
	}
	if err := v.validateBaseGenome(); err != nil {
		return fmt.Errorf("base_genome validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validatePopulation() error {
	p := v.cfg.Population
	if p == nil {
		return fmt.Errorf("population configuration is nil")
	}
	if p.Size < 2 {
		return fmt.Errorf("size must be at least 2, got %d", p.Size)
	}
	if p.Generations < 1 {
		return fmt.Errorf("generations must be at least 1, got %d", p.Generations)
	}
	if p.Elite < 1 || p.Elite >= p.Size {
		return fmt.Errorf("elite must be in [1, size), got %d (size=%d)", p.Elite, p.Size)
	}
	if p.TournamentT < 2 || p.TournamentT > p.Size {
		return fmt.Errorf("tournament_t must be in [2, size], got %d (size=%d)", p.TournamentT, p.Size)
	}
	if p.PCrossover < 0 || p.PCrossover > 1 {
		return fmt.Errorf("p_crossover must be in [0,1], got %v", p.PCrossover)
	}
	if p.EarlyStop < 0 || p.EarlyStop > 1 {
		return fmt.Errorf("early_stop must be in [0,1], got %v", p.EarlyStop)
	}
	if len(p.ModelKeys) == 0 {
		return fmt.Errorf("model_keys must be non-empty")
	}
	return nil
}

func (v *Validator) validateFitness() error {
	f := v.cfg.Fitness
	if f == nil {
		return fmt.Errorf("fitness configuration is nil")
	}
	if f.Latency < 0 || f.Tokens < 0 || f.Repairs < 0 || f.Cost < 0 {
		return fmt.Errorf("fitness weights must be non-negative, got %+v", f)
	}
	return nil
}

func (v *Validator) validateExecutor() error {
	e := v.cfg.Executor
	if e == nil {
		return fmt.Errorf("executor configuration is nil")
	}
	if e.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", e.TimeoutMS)
	}
	if e.MaxRepairs < 0 {
		return fmt.Errorf("max_repairs must be non-negative, got %d", e.MaxRepairs)
	}
	if len(e.RetryScheduleMS) == 0 {
		return fmt.Errorf("retry_schedule_ms must be non-empty")
	}
	for i, ms := range e.RetryScheduleMS {
		if ms < 0 {
			return fmt.Errorf("retry_schedule_ms[%d] must be non-negative, got %d", i, ms)
		}
	}
	return nil
}

func (v *Validator) validateRetrieval() error {
	r := v.cfg.Retrieval
	if r == nil {
		return fmt.Errorf("retrieval configuration is nil")
	}
	if r.FanoutTimeoutMS <= 0 {
		return fmt.Errorf("fanout_timeout_ms must be positive, got %d", r.FanoutTimeoutMS)
	}
	if r.RRFConstant <= 0 {
		return fmt.Errorf("rrf_c must be positive, got %d", r.RRFConstant)
	}
	if r.RerankBatch < 1 {
		return fmt.Errorf("rerank_batch must be at least 1, got %d", r.RerankBatch)
	}
	return nil
}

func (v *Validator) validateCache() error {
	c := v.cfg.Cache
	if c == nil {
		return fmt.Errorf("cache configuration is nil")
	}
	if c.TTLSeconds <= 0 {
		return fmt.Errorf("ttl_s must be positive, got %d", c.TTLSeconds)
	}
	if c.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be at least 1, got %d", c.MaxEntries)
	}
	return nil
}

func (v *Validator) validateBandit() error {
	b := v.cfg.Bandit
	if b == nil {
		return fmt.Errorf("bandit configuration is nil")
	}
	if b.SnapshotEvery < 1 {
		return fmt.Errorf("snapshot_every must be at least 1, got %d", b.SnapshotEvery)
	}
	if b.PriorAlpha <= 0 || b.PriorBeta <= 0 {
		return fmt.Errorf("prior_alpha and prior_beta must be positive, got (%v,%v)", b.PriorAlpha, b.PriorBeta)
	}
	if b.SnapshotPath == "" {
		return fmt.Errorf("snapshot_path must not be empty")
	}
	return nil
}

func (v *Validator) validateDaemon() error {
	d := v.cfg.Daemon
	if d == nil {
		return fmt.Errorf("daemon configuration is nil")
	}
	if d.IntervalSeconds < 1 {
		return fmt.Errorf("interval_s must be at least 1, got %d", d.IntervalSeconds)
	}
	if d.PromotionDelta < 0 {
		return fmt.Errorf("promotion_delta must be non-negative, got %v", d.PromotionDelta)
	}
	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if s.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if s.MaxInFlightRAG < 1 {
		return fmt.Errorf("max_in_flight_rag must be at least 1, got %d", s.MaxInFlightRAG)
	}
	return nil
}

func (v *Validator) validatePersistence() error {
	p := v.cfg.Persistence
	if p == nil {
		return fmt.Errorf("persistence configuration is nil")
	}
	if p.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

func (v *Validator) validateBaseGenome() error {
	g := v.cfg.BaseGenome
	if g == nil {
		return fmt.Errorf("base_genome configuration is nil")
	}
	if g.Rubric == "" {
		return fmt.Errorf("rubric must not be empty")
	}
	if g.ModelKey == "" {
		return fmt.Errorf("model_key must not be empty")
	}
	return nil
}
