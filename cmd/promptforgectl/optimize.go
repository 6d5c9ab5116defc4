package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(configDir *string) *cobra.Command {
	var generations int

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "run one Population Loop pass against the configured golden set and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, *configDir, generations)
		},
	}
	cmd.Flags().IntVar(&generations, "generations", 0, "override the configured generation count (0 keeps the config default)")
	return cmd
}

func runOptimize(cmd *cobra.Command, configDir string, generations int) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, configDir)
	if err != nil {
		return err
	}
	if generations > 0 {
		cfg.Population.Generations = generations
	}

	c, err := build(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer c.close()

	run, err := c.newRun(uuid.NewString())
	if err != nil {
		return fmt.Errorf("optimize run setup failed: %w", err)
	}

	outcome, err := run.Execute(ctx, c.base)
	if err != nil {
		return fmt.Errorf("optimize run failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"best_genome": outcome.Best,
		"history":     outcome.Records,
	})
}
