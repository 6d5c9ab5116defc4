package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/quillhq/promptforge/internal/api"
	"github.com/quillhq/promptforge/internal/daemon"
	"github.com/quillhq/promptforge/internal/evo"
	"github.com/quillhq/promptforge/internal/genome"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP façade, bandit-fronted router, and improvement daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configDir)
		},
	}
}

func runServe(ctx context.Context, configDir string) error {
	cfg, err := loadConfig(ctx, configDir)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	c, err := build(cfg, reg)
	if err != nil {
		return err
	}
	defer c.close()

	srv := api.New(cfg.Server, dynamicOptimizer{c}, c.base, c.rag, c.bandit, reg)
	srv.SetGenerator(c.generator)
	srv.SetGenomeRegistry(c.genomeRegistry)
	srv.SetRouter(c.newRouter())

	d := daemon.New(cfg.Daemon, c.base, c.newRun, c.liveBest, promotionSink{c})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.Start(runCtx)
	srv.Start()
	slog.Info("promptforgectl serving", "addr", cfg.Server.Addr)

	<-runCtx.Done()
	slog.Info("shutting down")
	d.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := c.snapshotBandit(); err != nil {
		slog.Error("final bandit snapshot failed", "error", err)
	}
	return nil
}

// dynamicOptimizer adapts components to api.OptimizeRunner, building a
// fresh evo.Run (and history log) per request under a generated run ID.
type dynamicOptimizer struct {
	c *components
}

func (d dynamicOptimizer) Execute(ctx context.Context, base genome.Genome, generations int) (evo.Outcome, error) {
	runID := uuid.NewString()
	run, err := d.c.newRun(runID)
	if err != nil {
		return evo.Outcome{}, err
	}
	if generations > 0 {
		cfg := *run.Cfg
		cfg.Generations = generations
		run.Cfg = &cfg
	}
	return run.Execute(ctx, base)
}

// promotionSink wires a daemon.PromotionEvent to the genome registry and
// bandit so a promoted genome becomes routable immediately.
type promotionSink struct {
	c *components
}

func (s promotionSink) Promote(event daemon.PromotionEvent) {
	for _, g := range event.TopGenomes {
		s.c.genomeRegistry(g)
		s.c.bandit.Register(g.ID())
	}
	slog.Info("promotion gate fired",
		"new_best_score", event.NewBestScore,
		"live_best_score", event.LiveBestScore)
}
