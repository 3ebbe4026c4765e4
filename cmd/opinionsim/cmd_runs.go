package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/opinionsim/config"
	"github.com/hupe1980/opinionsim/export"
	"github.com/hupe1980/opinionsim/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a SQLite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path, _ := cmd.Flags().GetString("store")
			if path == "" {
				configPath, _ := cmd.Flags().GetString("config")
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				path = cfg.Output.StorePath
			}
			if path == "" {
				return fmt.Errorf("no store: set output.store_path or pass --store")
			}

			s, err := store.Open(path)
			if err != nil {
				return err
			}
			defer s.Close()

			if id, _ := cmd.Flags().GetString("id"); id != "" {
				run, err := s.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return export.WriteJSON(cmd.OutOrStdout(), run)
			}

			runs, err := s.List(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return export.WriteJSON(cmd.OutOrStdout(), runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tMODEL\tSTIMULI\tAGENTS\tREACTIONS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Model, r.StimuliCount, r.Agents, r.Reactions)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("store", "", "SQLite run store (defaults to output.store_path)")
	cmd.Flags().String("id", "", "Print the full run with this id")

	return cmd
}
