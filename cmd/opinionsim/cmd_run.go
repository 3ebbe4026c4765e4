package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hupe1980/opinionsim"
	"github.com/hupe1980/opinionsim/config"
	"github.com/hupe1980/opinionsim/dataset"
	"github.com/hupe1980/opinionsim/export"
	"github.com/hupe1980/opinionsim/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation over a sampled comment dataset",
		Long: `Load the configuration, draw a stratified sample of comments from the
dataset, let every persona react to every comment and write the result.

Examples:
  opinionsim run --config config.yaml
  opinionsim run --data comments.csv --samples 3 --out result.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("data"); v != "" {
				cfg.Dataset.Path = v
			}
			if cmd.Flags().Changed("samples") {
				cfg.Dataset.SamplesPerClass, _ = cmd.Flags().GetInt("samples")
			}
			if v, _ := cmd.Flags().GetString("out"); v != "" {
				cfg.Output.ResultPath = v
			}
			if v, _ := cmd.Flags().GetString("store"); v != "" {
				cfg.Output.StorePath = v
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if cfg.Dataset.Path == "" {
				return fmt.Errorf("no dataset: set dataset.path or pass --data")
			}

			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}

			comments, err := dataset.Load(cfg.Dataset.Path, func(o *dataset.Options) {
				o.ContentColumn = cfg.Dataset.ContentColumn
				o.LabelColumn = cfg.Dataset.LabelColumn
			})
			if err != nil {
				return err
			}
			sampled := dataset.Sample(comments, cfg.Dataset.SamplesPerClass, cfg.Dataset.Seed)
			if len(sampled) == 0 {
				return fmt.Errorf("no comments sampled from %s", cfg.Dataset.Path)
			}
			logger.Info("dataset.sampled", "path", cfg.Dataset.Path, "comments", len(sampled), "labels", dataset.Labels(sampled))

			llm, err := newModel(cfg.LLM)
			if err != nil {
				return err
			}

			var runStore store.Store = store.NewInMemoryStore()
			if cfg.Output.StorePath != "" {
				sqlStore, err := store.Open(cfg.Output.StorePath)
				if err != nil {
					return err
				}
				defer sqlStore.Close()
				runStore = sqlStore
			}

			sim := opinionsim.New(llm, func(o *opinionsim.Options) {
				o.MemoryDecay = cfg.Simulation.MemoryDecay
				o.ImpactScale = cfg.Simulation.ImpactScale
				o.Timeout = cfg.LLM.Timeout
				o.Store = runStore
				o.Logger = logger
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			run, runErr := sim.Run(ctx, dataset.Texts(sampled), cfg.Population)
			if run == nil {
				return runErr
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			if err := export.WriteResultFile(cfg.Output.ResultPath, run.Output); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := export.WriteJSON(out, map[string]any{
					"run_id":      run.ID,
					"stimuli":     run.StimuliCount,
					"reactions":   len(run.Output.RawLogs),
					"result_path": cfg.Output.ResultPath,
					"cancelled":   runErr != nil,
				}); err != nil {
					return err
				}
				return runErr
			}

			if len(run.Output.RawLogs) > 0 {
				fmt.Fprintln(out, "Simulation complete. First log entry:")
				if err := export.WriteJSON(out, run.Output.RawLogs[0]); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, "Simulation complete. No reactions were recorded.")
			}
			fmt.Fprintf(out, "Run %s saved; full result written to %s\n", run.ID, cfg.Output.ResultPath)

			return runErr
		},
	}

	cmd.Flags().String("data", "", "Comment CSV (overrides dataset.path)")
	cmd.Flags().Int("samples", 5, "Comments sampled per label (overrides dataset.samples_per_class)")
	cmd.Flags().String("out", "", "Result JSON path (overrides output.result_path)")
	cmd.Flags().String("store", "", "SQLite run store (overrides output.store_path)")

	return cmd
}
