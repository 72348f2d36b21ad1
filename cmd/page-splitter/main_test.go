package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	pagesplitter "github.com/menta2k/page-splitter"
	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/geometry"
)

func writeScan(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{240, 240, 230, 255}
			if x >= 98 && x < 102 {
				c = color.RGBA{20, 20, 20, 255}
			}
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("0.1, 0.2,0.3,0.4")
	require.NoError(t, err)
	require.Equal(t, geometry.NormalizedRect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}, r)

	r, err = parseRect("0,0,0,-1")
	require.NoError(t, err)
	require.Equal(t, geometry.MinSize, r.Width)

	_, err = parseRect("1,2,3")
	require.Error(t, err)
	_, err = parseRect("a,b,c,d")
	require.Error(t, err)
}

func TestCropFlagsApply(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "a.png"))
	writeScan(t, filepath.Join(dir, "b.png"))

	s := pagesplitter.New()
	_, err := s.Load(dir)
	require.NoError(t, err)

	f := &cropFlags{mode: "split", primary: "0.05,0.1,0.4,0.8", align: "right"}
	require.NoError(t, f.apply(&cobra.Command{}, s))

	for _, page := range s.Registry().Pages() {
		require.Equal(t, crop.Split, page.Crop.Mode())
		sec, ok := page.Crop.RectByRole(crop.Secondary)
		require.True(t, ok)
		require.InDelta(t, 0.45, sec.Rect.X, 1e-9)
	}
}

func TestCropFlagsErrors(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "a.png"))
	s := pagesplitter.New()
	_, err := s.Load(dir)
	require.NoError(t, err)

	require.Error(t, (&cropFlags{mode: "triple"}).apply(&cobra.Command{}, s))
	require.ErrorIs(t, (&cropFlags{mode: "single", secondary: "0,0,1,1"}).apply(&cobra.Command{}, s), crop.ErrNotApplicable)
	require.ErrorIs(t, (&cropFlags{mode: "single", align: "right"}).apply(&cobra.Command{}, s), crop.ErrNotApplicable)
	require.Error(t, (&cropFlags{mode: "split", align: "up"}).apply(&cobra.Command{}, s))
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "b.png"))
	writeScan(t, filepath.Join(dir, "a.png"))
	out := filepath.Join(t.TempDir(), "pages")

	stdout, err := runCLI(t, "export", dir, "--gutter", "--naming", "original", "--format", "png", "--out", out)
	require.NoError(t, err)
	require.Contains(t, stdout, "Export complete: 4 images saved to "+out)

	for _, name := range []string{"a_001.png", "a_002.png", "b_003.png", "b_004.png"} {
		require.FileExists(t, filepath.Join(out, name))
	}
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "a.png"))

	stdout, err := runCLI(t, "list", dir, "--mode", "split")
	require.NoError(t, err)
	require.Contains(t, stdout, "a.png")
	require.Contains(t, stdout, "split")
	require.Contains(t, stdout, "0.0500,0.1000,0.4000,0.8000")
	require.Contains(t, stdout, "0.5500,0.1000,0.4000,0.8000")
}

func TestCropFlagsSplitDefaults(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "a.png"))

	s := pagesplitter.New()
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, (&cropFlags{mode: "split"}).apply(&cobra.Command{}, s))

	page := s.Registry().Pages()[0]
	p, _ := page.Crop.RectByRole(crop.Primary)
	sec, _ := page.Crop.RectByRole(crop.Secondary)
	require.Equal(t, crop.DefaultLeftRect, p.Rect)
	require.Equal(t, crop.DefaultRightRect, sec.Rect)
	require.LessOrEqual(t, p.Rect.MaxX(), sec.Rect.X)

	// an explicit primary wins over the split default
	_, err = s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, (&cropFlags{mode: "split", primary: "0.02,0.05,0.46,0.9"}).apply(&cobra.Command{}, s))
	p, _ = s.Registry().Pages()[0].Crop.RectByRole(crop.Primary)
	require.Equal(t, geometry.NormalizedRect{X: 0.02, Y: 0.05, Width: 0.46, Height: 0.9}, p.Rect)

	// single mode keeps the single default
	_, err = s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, (&cropFlags{mode: "single"}).apply(&cobra.Command{}, s))
	p, _ = s.Registry().Pages()[0].Crop.RectByRole(crop.Primary)
	require.Equal(t, crop.DefaultSingleRect, p.Rect)
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	writeScan(t, filepath.Join(dir, "a.png"))

	stdout, err := runCLI(t, "preview", dir)
	require.NoError(t, err)
	require.Contains(t, stdout, "Preview complete: 1 images")
	require.FileExists(t, filepath.Join(dir, "Preview", "a_preview.png"))
}

func TestMissingFolder(t *testing.T) {
	_, err := runCLI(t, "list", filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, "not a folder")
}
