package config

// DefaultPopulationConfig returns the population-loop defaults from the
// enumerated configuration options: P=12, G=10, elite=max(1,P/6),
// tournament_t=max(2,P/4), p_crossover=0.5, early_stop=0.95.
func DefaultPopulationConfig() *PopulationConfig {
	return &PopulationConfig{
		Size:        12,
		Generations: 10,
		Elite:       2,
		TournamentT: 3,
		PCrossover:  0.5,
		EarlyStop:   0.95,
		ModelKeys:   []string{"gpt-small", "gpt-large"},
	}
}

// DefaultFitnessWeights returns the default linear penalty weights.
func DefaultFitnessWeights() *FitnessWeights {
	return &FitnessWeights{
		Latency: 1e-3,
		Tokens:  5e-4,
		Repairs: 0.2,
		Cost:    0.5,
	}
}

// DefaultExecutorConfig returns the default executor timeout, repair
// budget, and retry schedule.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		TimeoutMS:       30000,
		MaxRepairs:      2,
		RetryScheduleMS: []int{100, 300, 900},
	}
}

// DefaultRetrievalConfig returns the default hybrid-retrieval fanout and
// fusion parameters.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		FanoutTimeoutMS: 800,
		RRFConstant:     60,
		RerankBatch:     32,
	}
}

// DefaultCacheConfig returns the default TTL and capacity for the
// retrieval result cache.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTLSeconds: 600,
		MaxEntries: 10000,
	}
}

// DefaultBanditConfig returns the default bandit snapshot cadence and
// Beta(1,1) prior.
func DefaultBanditConfig() *BanditConfig {
	return &BanditConfig{
		SnapshotEvery: 100,
		PriorAlpha:    1,
		PriorBeta:     1,
		SnapshotPath:  "bandit/snapshot.json",
	}
}

// DefaultDaemonConfig returns the default improvement-daemon schedule and
// promotion gate.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		IntervalSeconds: 3600,
		PromotionDelta:  0.05,
	}
}

// DefaultServerConfig returns the default HTTP façade bind address and
// in-flight RAG bound.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":8080",
		MaxInFlightRAG: 64,
	}
}

// DefaultPersistenceConfig returns the default on-disk layout.
func DefaultPersistenceConfig() *PersistenceConfig {
	return &PersistenceConfig{
		DataDir: "./data",
	}
}

// DefaultBaseGenomeConfig returns a conservative starting genome: no
// chain-of-thought, moderate temperature, a generic rubric.
func DefaultBaseGenomeConfig() *BaseGenomeConfig {
	return &BaseGenomeConfig{
		Rubric:        "Answer the user's request accurately and concisely.",
		CoT:           false,
		Temp:          0.7,
		MaxTokens:     512,
		RetrieverTopK: 5,
		UseConsensus:  false,
		ModelKey:      "gpt-small",
	}
}
