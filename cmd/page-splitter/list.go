package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/page-splitter/internal/utils"
	"github.com/menta2k/page-splitter/pkg/crop"
)

func newListCmd(a *app) *cobra.Command {
	var crops cropFlags

	cmd := &cobra.Command{
		Use:   "list <folder>",
		Short: "List the pages of a folder and their crop rects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession(cmd, args[0], &crops)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPAGE\tSIZE\tMODE\tPRIMARY\tSECONDARY")
			for i, page := range s.Registry().Pages() {
				size := "-"
				if info, err := os.Stat(page.SourcePath); err == nil {
					size = utils.FormatFileSize(info.Size())
				}
				primary, secondary := "-", "-"
				for _, r := range page.Crop.Sorted() {
					if r.Role == crop.Primary {
						primary = r.Rect.String()
					} else {
						secondary = r.Rect.String()
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, page.Name(), size, page.Crop.Mode(), primary, secondary)
			}
			return w.Flush()
		},
	}

	crops.register(cmd)
	return cmd
}
