package config

// PopulationConfig controls the genetic-algorithm population loop (C4).
type PopulationConfig struct {
	Size        int      `yaml:"size" validate:"required"`
	Generations int      `yaml:"generations" validate:"required"`
	Elite       int      `yaml:"elite,omitempty"`
	TournamentT int      `yaml:"tournament_t,omitempty"`
	PCrossover  float64  `yaml:"p_crossover"`
	EarlyStop   float64  `yaml:"early_stop"`
	ModelKeys   []string `yaml:"model_keys,omitempty"`
	Seed        int64    `yaml:"seed,omitempty"`
}

// FitnessWeights holds the linear penalty weights used by the fitness
// aggregator (C2). All weights must be non-negative.
type FitnessWeights struct {
	Latency float64 `yaml:"w_lat"`
	Tokens  float64 `yaml:"w_tok"`
	Repairs float64 `yaml:"w_rep"`
	Cost    float64 `yaml:"w_cost"`
}

// ExecutorConfig controls generator invocation, repair-loop, and retry
// behavior for the Executor (C6).
type ExecutorConfig struct {
	TimeoutMS       int   `yaml:"timeout_ms"`
	MaxRepairs      int   `yaml:"max_repairs"`
	RetryScheduleMS []int `yaml:"retry_schedule_ms,omitempty"`
}

// RetrievalConfig controls the hybrid retriever's fanout and fusion (C8).
type RetrievalConfig struct {
	FanoutTimeoutMS int `yaml:"fanout_timeout_ms"`
	RRFConstant     int `yaml:"rrf_c"`
	RerankBatch     int `yaml:"rerank_batch"`
}

// CacheConfig controls the retrieval result cache (C9).
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_s"`
	MaxEntries int `yaml:"max_entries"`
}

// BanditConfig controls the Thompson-sampling bandit (C5).
type BanditConfig struct {
	SnapshotEvery int     `yaml:"snapshot_every"`
	PriorAlpha    float64 `yaml:"prior_alpha"`
	PriorBeta     float64 `yaml:"prior_beta"`
	SnapshotPath  string  `yaml:"snapshot_path,omitempty"`
}

// DaemonConfig controls the improvement daemon's schedule and promotion
// gate (C11).
type DaemonConfig struct {
	IntervalSeconds int     `yaml:"interval_s"`
	PromotionDelta  float64 `yaml:"promotion_delta"`
}

// ServerConfig controls the HTTP façade (C13).
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxInFlightRAG int    `yaml:"max_in_flight_rag"`
}

// PersistenceConfig controls where history logs, bandit snapshots, and
// the golden set live on disk (C14).
type PersistenceConfig struct {
	DataDir       string `yaml:"data_dir"`
	GoldenSetPath string `yaml:"golden_set_path,omitempty"`
}

// BaseGenomeConfig seeds the Population Loop's starting genome (spec.md
// §4.3 "Seeding"): the fields every run perturbs to build generation 0.
type BaseGenomeConfig struct {
	Rubric        string  `yaml:"rubric"`
	CoT           bool    `yaml:"cot"`
	Temp          float64 `yaml:"temp"`
	MaxTokens     int     `yaml:"max_tokens"`
	RetrieverTopK int     `yaml:"retriever_topk"`
	UseConsensus  bool    `yaml:"use_consensus"`
	ModelKey      string  `yaml:"model_key"`
}
