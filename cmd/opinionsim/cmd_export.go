package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hupe1980/opinionsim/artifact"
	"github.com/hupe1980/opinionsim/config"
	"github.com/hupe1980/opinionsim/export"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [files...]",
		Short: "Pack the deliverable files into a timestamped zip",
		Long: `Create deliverable_<YYYYMMDD_HHMM>.zip containing the given files (or the
default whitelist) plus a generated README.txt. Missing files are skipped.
The bundle goes to output.bundle_dir unless --dir is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			base, _ := cmd.Flags().GetString("base")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			dir := cfg.Output.BundleDir
			if cmd.Flags().Changed("dir") {
				dir, _ = cmd.Flags().GetString("dir")
			}
			if dir == "" {
				dir = "."
			}

			files := args
			if len(files) == 0 {
				files = export.DefaultFiles
			}

			bundle, err := export.NewBundle(files, func(o *export.BundleOptions) {
				o.BaseDir = base
			})
			if err != nil && !errors.Is(err, export.ErrEmptyBundle) {
				return err
			}
			emptyErr := err

			out := cmd.OutOrStdout()
			if emptyErr == nil {
				fs := artifact.NewFileStore(dir)
				if err := bundle.SaveTo(fs, ""); err != nil {
					return err
				}
			}

			if jsonOut {
				if err := export.WriteJSON(out, map[string]any{
					"bundle":   filepath.Join(dir, bundle.Name),
					"manifest": bundle.Manifest,
					"written":  emptyErr == nil,
				}); err != nil {
					return err
				}
				return emptyErr
			}

			for _, f := range bundle.Manifest.Added {
				fmt.Fprintf(out, "  added:   %s\n", f)
			}
			for _, f := range bundle.Manifest.Missing {
				fmt.Fprintf(out, "  missing: %s (skipped)\n", f)
			}
			if emptyErr != nil {
				return emptyErr
			}
			fmt.Fprintf(out, "Bundle written to %s\n", filepath.Join(dir, bundle.Name))
			return nil
		},
	}

	cmd.Flags().String("dir", ".", "Directory the bundle is written to (overrides output.bundle_dir)")
	cmd.Flags().String("base", "", "Directory relative file names are resolved against")

	return cmd
}
