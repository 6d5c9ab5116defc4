// Command promptforgectl runs the Evolutionary Prompt Optimizer and
// Hybrid Retrieval Service: serve the HTTP façade, run one optimize
// pass, or run the improvement daemon standalone.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillhq/promptforge/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:     "promptforgectl",
		Short:   "Evolutionary Prompt Optimizer and Hybrid Retrieval Service",
		Version: version.Full(),
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")

	root.AddCommand(newServeCmd(&configDir))
	root.AddCommand(newOptimizeCmd(&configDir))
	root.AddCommand(newDaemonCmd(&configDir))
	return root
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
