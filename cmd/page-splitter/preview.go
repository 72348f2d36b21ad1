package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/page-splitter/internal/utils"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		crops cropFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "preview <folder>",
		Short: "Write copies of each page with the crop rects outlined",
		Long: `Applies the crop template like export does, but instead of cropping it
writes every page with its primary rect outlined in blue and its secondary
rect in red, so the geometry can be checked before exporting.`,
		Example: `  page-splitter preview scans --mode split --gutter`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd, args[0], &crops)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(args[0], "Preview")
			}
			if err := utils.EnsureDir(out); err != nil {
				return err
			}

			written := 0
			for _, page := range s.Registry().Pages() {
				path := filepath.Join(out, utils.BaseName(page.SourcePath)+"_preview.png")
				if err := s.Preview(page.ID, path); err != nil {
					a.logger.Error("Preview failed", "page", page.Name(), "error", err)
					continue
				}
				written++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Preview complete: %d images saved to %s\n", written, out)
			return nil
		},
	}

	crops.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "preview folder (default <folder>/Preview)")

	return cmd
}
