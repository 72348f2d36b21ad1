package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	pagesplitter "github.com/menta2k/page-splitter"
	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/geometry"
)

// cropFlags describe the crop template applied to every page
type cropFlags struct {
	mode      string
	primary   string
	secondary string
	align     string
	gutter    bool
	detect    bool
}

func (f *cropFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "single", "crop mode: single or split")
	cmd.Flags().StringVar(&f.primary, "primary", "", "primary rect as x,y,w,h in [0,1]")
	cmd.Flags().StringVar(&f.secondary, "secondary", "", "secondary rect as x,y,w,h in [0,1] (split mode)")
	cmd.Flags().StringVar(&f.align, "align", "", "place the secondary rect next to the primary: left or right")
	cmd.Flags().BoolVar(&f.gutter, "gutter", false, "find the binding gutter on each page and split there")
	cmd.Flags().BoolVar(&f.detect, "detect", false, "ask the configured vision model for page regions")
}

// apply shapes the first page, copies it to every page and then runs the
// per-page detectors
func (f *cropFlags) apply(cmd *cobra.Command, s *pagesplitter.Session) error {
	pages := s.Registry().Pages()
	if len(pages) == 0 {
		return nil
	}

	mode, err := crop.ParseMode(f.mode)
	if err != nil {
		return err
	}

	template := pages[0].Crop
	template.UpdateMode(mode)

	// split mode starts from the left half unless --primary is given
	primary := geometry.NormalizedRect{}
	switch {
	case f.primary != "":
		r, err := parseRect(f.primary)
		if err != nil {
			return fmt.Errorf("--primary: %w", err)
		}
		primary = r
	case mode == crop.Split:
		primary = crop.DefaultLeftRect
	}
	if primary != (geometry.NormalizedRect{}) {
		p, _ := template.RectByRole(crop.Primary)
		if err := template.SetRect(p.ID, primary); err != nil {
			return err
		}
	}

	if f.secondary != "" {
		if mode != crop.Split {
			return fmt.Errorf("--secondary: %w", crop.ErrNotApplicable)
		}
		r, err := parseRect(f.secondary)
		if err != nil {
			return fmt.Errorf("--secondary: %w", err)
		}
		sec, _ := template.RectByRole(crop.Secondary)
		if err := template.SetRect(sec.ID, r); err != nil {
			return err
		}
	}

	switch strings.ToLower(f.align) {
	case "":
	case "left", "right":
		if err := template.Align(strings.EqualFold(f.align, "right")); err != nil {
			return fmt.Errorf("--align: %w", err)
		}
	default:
		return fmt.Errorf("--align must be left or right, got %q", f.align)
	}

	s.Registry().ApplySettingsToAll(pages[0].ID)

	for _, page := range pages {
		if f.gutter {
			if _, err := s.DetectGutter(page.ID); err != nil {
				return err
			}
		}
		if f.detect {
			if _, err := s.DetectPages(cmd.Context(), page.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseRect parses "x,y,w,h"
func parseRect(s string) (geometry.NormalizedRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.NormalizedRect{}, fmt.Errorf("expected x,y,w,h, got %q", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.NormalizedRect{}, fmt.Errorf("invalid number %q", p)
		}
		v[i] = f
	}
	return geometry.NewRect(v[0], v[1], v[2], v[3]), nil
}
