package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "opinionsim",
		Short: "Consumer opinion simulation with LLM personas",
		Long: `opinionsim feeds a stream of platform comments to a population of
LLM-backed consumer personas and records how each persona's attitude
toward the platform evolves.

The result JSON holds the raw reaction log (for heatmap and sankey views)
and one score trajectory per persona (for the line chart).`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to config YAML")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newReportCmd(),
		newRunsCmd(),
		newExportCmd(),
	)

	return rootCmd
}
