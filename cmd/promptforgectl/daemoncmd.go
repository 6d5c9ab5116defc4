package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/quillhq/promptforge/internal/daemon"
)

func newDaemonCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "run the improvement daemon standalone, without the HTTP façade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), *configDir)
		},
	}
}

func runDaemon(ctx context.Context, configDir string) error {
	cfg, err := loadConfig(ctx, configDir)
	if err != nil {
		return err
	}

	c, err := build(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer c.close()

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg.Daemon, c.base, c.newRun, c.liveBest, promotionSink{c})
	d.Start(runCtx)
	slog.Info("improvement daemon running", "interval_s", cfg.Daemon.IntervalSeconds)

	<-runCtx.Done()
	slog.Info("stopping improvement daemon")
	d.Stop()

	if err := c.snapshotBandit(); err != nil {
		slog.Error("final bandit snapshot failed", "error", err)
	}
	return nil
}
