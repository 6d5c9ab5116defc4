package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillhq/promptforge/internal/bandit"
	"github.com/quillhq/promptforge/internal/evo"
	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/internal/metrics"
	"github.com/quillhq/promptforge/internal/persistence"
	"github.com/quillhq/promptforge/internal/rag"
	"github.com/quillhq/promptforge/internal/retrieval/cache"
	"github.com/quillhq/promptforge/internal/retrieval/hybrid"
	"github.com/quillhq/promptforge/internal/retrieval/store"
	"github.com/quillhq/promptforge/internal/router"
	"github.com/quillhq/promptforge/pkg/apperr"
	"github.com/quillhq/promptforge/pkg/config"
)

// components bundles every wired piece main's subcommands need. Built
// once from Config so serve/optimize/daemon share identical wiring.
type components struct {
	cfg *config.Config

	sink      *metrics.Sink
	lexical   *store.SQLiteLexicalStore
	rag       *rag.Service
	executor  *executor.Executor
	generator executor.Generator
	bandit    *bandit.Bandit
	genomes   map[string]genome.Genome
	base      genome.Genome
}

// build wires every promptforge component from cfg, following the
// "process-wide state is limited to the Metrics Sink and Bandit
// snapshot file" rule (spec.md §9): everything else is constructed
// fresh here and threaded through by reference.
func build(cfg *config.Config, reg *prometheus.Registry) (*components, error) {
	sink := metrics.New(reg)

	dense := store.NewMemoryDenseStore()
	lexical, err := store.OpenSQLiteLexicalStore(":memory:")
	if err != nil {
		return nil, err
	}
	embedder := store.NewStubEmbedder(32)

	retriever := &hybrid.Retriever{
		Vector:        dense,
		Lexical:       lexical,
		Embedder:      embedder,
		FanoutTimeout: time.Duration(cfg.Retrieval.FanoutTimeoutMS) * time.Millisecond,
		RRFConstant:   cfg.Retrieval.RRFConstant,
		RerankBatch:   cfg.Retrieval.RerankBatch,
	}

	ragCache := cache.New(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxEntries)
	ragSvc := rag.New(retriever, ragCache, sink, cfg.Server.MaxInFlightRAG)

	modelEndpoints, defaultEndpoint := executor.ModelEndpointsFromEnv(cfg.Population.ModelKeys)
	generator := executor.NewHTTPGenerator(modelEndpoints, defaultEndpoint)

	exec := executor.New(generator, rag.ExecutorRetriever{Service: ragSvc}, cfg.Executor)

	b := bandit.New(cfg.Bandit.PriorAlpha, cfg.Bandit.PriorBeta, time.Now().UnixNano())
	if snaps, err := persistence.ReadBanditSnapshot(cfg.Persistence.DataDir + "/" + cfg.Bandit.SnapshotPath); err == nil {
		b.Restore(snaps)
	} else {
		slog.Warn("no bandit snapshot restored", "error", err)
	}

	base, err := genome.New(genome.Fields{
		Rubric:        cfg.BaseGenome.Rubric,
		CoT:           cfg.BaseGenome.CoT,
		Temp:          cfg.BaseGenome.Temp,
		MaxTokens:     cfg.BaseGenome.MaxTokens,
		RetrieverTopK: cfg.BaseGenome.RetrieverTopK,
		UseConsensus:  cfg.BaseGenome.UseConsensus,
		ModelKey:      cfg.BaseGenome.ModelKey,
	}, 0)
	if err != nil {
		return nil, err
	}

	return &components{
		cfg:       cfg,
		sink:      sink,
		lexical:   lexical,
		rag:       ragSvc,
		executor:  exec,
		generator: generator,
		bandit:    b,
		genomes:   map[string]genome.Genome{base.ID(): base},
		base:      base,
	}, nil
}

func (c *components) loadGoldenSet() ([]genome.GoldenExample, error) {
	if c.cfg.Persistence.GoldenSetPath == "" {
		return nil, apperr.New(apperr.KindGoldenSetInvalid, "no golden set path configured")
	}
	return persistence.LoadGoldenSet(c.cfg.Persistence.GoldenSetPath)
}

// newRun builds one evo.Run wired to this process's shared executor,
// config, and a fresh history log for runID (spec.md §4.14: one history
// file per run). A golden-set load failure (including an empty set,
// spec.md §8: "Empty golden set ⇒ GoldenSetInvalid") aborts the run
// instead of silently evaluating against nothing.
func (c *components) newRun(runID string) (*evo.Run, error) {
	goldenSet, err := c.loadGoldenSet()
	if err != nil {
		return nil, fmt.Errorf("load golden set: %w", err)
	}

	history, err := persistence.OpenHistoryLog(c.cfg.Persistence.DataDir, runID)
	if err != nil {
		slog.Error("failed to open history log", "error", err)
	}

	return &evo.Run{
		Executor:    c.executor,
		Cfg:         c.cfg.Population,
		Weights:     c.cfg.Fitness,
		History:     history,
		Generator:   c.generator,
		GoldenSet:   goldenSet,
		EvalWorkers: 8,
	}, nil
}

func (c *components) genomeRegistry(g genome.Genome) {
	c.genomes[g.ID()] = g
}

func (c *components) lookupGenome(id string) (genome.Genome, bool) {
	g, ok := c.genomes[id]
	return g, ok
}

// newRouter builds the Bandit-fronted Router (C15) over this process's
// shared bandit and executor.
func (c *components) newRouter() *router.Router {
	minArms := 1
	return router.New(c.bandit, c.executor, genomeRegistryFunc(c.lookupGenome), c.cfg.Fitness, c.base, minArms, routerSink{c.sink})
}

type genomeRegistryFunc func(id string) (genome.Genome, bool)

func (f genomeRegistryFunc) Genome(id string) (genome.Genome, bool) { return f(id) }

type routerSink struct{ sink *metrics.Sink }

func (s routerSink) ObserveBanditUpdate(genomeID string, expectedValue float64) {
	s.sink.ObserveBanditUpdate(genomeID, expectedValue)
}

// liveBest returns the highest expected value among the bandit's
// registered arms, the daemon's comparison point for the promotion gate
// (spec.md §4.11).
func (c *components) liveBest() float64 {
	best := 0.0
	for _, s := range c.bandit.Stats() {
		if s.ExpectedValue > best {
			best = s.ExpectedValue
		}
	}
	return best
}

func (c *components) snapshotBandit() error {
	path := c.cfg.Persistence.DataDir + "/" + c.cfg.Bandit.SnapshotPath
	return persistence.WriteBanditSnapshot(path, c.bandit.Snapshot())
}

func (c *components) close() {
	if c.lexical != nil {
		_ = c.lexical.Close()
	}
}
