package main

import (
	"fmt"

	"github.com/hupe1980/opinionsim/evaluation"
	"github.com/hupe1980/opinionsim/export"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a result file per persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			stimuli, _ := cmd.Flags().GetInt("stimuli")
			jsonOut, _ := cmd.Flags().GetBool("json")

			out, err := export.ReadResultFile(in)
			if err != nil {
				return err
			}

			rep := evaluation.Evaluate(out, stimuli)
			if jsonOut {
				return export.WriteJSON(cmd.OutOrStdout(), rep)
			}
			if err := evaluation.Format(cmd.OutOrStdout(), rep); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("in", "simulation_result.json", "Result JSON to summarize")
	cmd.Flags().Int("stimuli", 0, "Number of stimuli in the run (default: longest trajectory)")

	return cmd
}
