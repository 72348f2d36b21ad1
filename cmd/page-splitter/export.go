package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/page-splitter/pkg/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		crops  cropFlags
		format string
		naming string
		prefix string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <folder>",
		Short: "Crop every image in a folder and write the results",
		Long: `Loads the jpg, jpeg, png and webp files directly inside <folder>,
applies the crop template to every page and writes one file per crop rect
into <folder>/Output (or --out). Files are numbered with one counter for
the whole run, primary rect before secondary.`,
		Example: `  # Split two-page spreads with the default halves
  page-splitter export scans --mode split

  # Custom geometry, secondary placed right of the primary
  page-splitter export scans --mode split --primary 0.03,0.05,0.46,0.9 --align right

  # Let the gutter decide, keep source names
  page-splitter export scans --gutter --naming original --format png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd, args[0], &crops)
			if err != nil {
				return err
			}

			opts, err := a.cfg.ExportOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				if opts.Format, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("naming") {
				if opts.FilenameMode, err = export.ParseFilenameMode(naming); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("prefix") {
				opts.CustomPrefix = prefix
			}
			if cmd.Flags().Changed("out") {
				opts.OutputFolder = out
			}
			s.Registry().SetOptions(opts)

			stderr := cmd.ErrOrStderr()
			summary, err := s.Export(func(f float64) {
				fmt.Fprintf(stderr, "\rExporting... %3.0f%%", f*100)
				if f >= 1 {
					fmt.Fprintln(stderr)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			for _, f := range summary.Failures {
				a.logger.Warn("Crop failed", "detail", f.String())
			}
			return summary.Err
		},
	}

	crops.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "jpg", "output format: jpg or png")
	cmd.Flags().StringVarP(&naming, "naming", "n", "sequence", "file naming: sequence, original, custom or original-custom")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "custom file name prefix")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output folder (default <folder>/Output)")

	return cmd
}
