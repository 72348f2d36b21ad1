// Package vision finds the gutter between two facing pages with a column
// luminance profile, without a model round trip.
package vision

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/page-splitter/pkg/geometry"
)

// GutterDetector locates the dark seam of a two-page spread
type GutterDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for gutter detection
type DetectionConfig struct {
	SearchBand  float64 // width of the searched band around the center, as a fraction
	Margin      float64 // page margin applied to suggested rects
	MinContrast float64 // required luminance drop below the band mean, 0..1
	SampleWidth int     // images wider than this are downscaled first
}

// New creates a new GutterDetector with default configuration
func New() *GutterDetector {
	return &GutterDetector{
		config: DetectionConfig{
			SearchBand:  0.3,
			Margin:      0.02,
			MinContrast: 0.08,
			SampleWidth: 600,
		},
	}
}

// NewWithConfig creates a new GutterDetector with custom configuration
func NewWithConfig(config DetectionConfig) *GutterDetector {
	return &GutterDetector{config: config}
}

// Gutter is a detected seam position
type Gutter struct {
	X        float64 // normalized column
	Contrast float64 // luminance drop below the band mean
}

// FindGutter returns the darkest column near the horizontal center. ok is
// false when the image has no seam darker than MinContrast.
func (d *GutterDetector) FindGutter(img image.Image) (Gutter, bool) {
	profile := d.columnProfile(img)
	n := len(profile)
	if n < 3 {
		return Gutter{}, false
	}

	half := d.config.SearchBand / 2
	lo := int((0.5 - half) * float64(n))
	hi := int((0.5 + half) * float64(n))
	if lo < 1 {
		lo = 1
	}
	if hi > n-1 {
		hi = n - 1
	}
	if hi <= lo {
		return Gutter{}, false
	}

	smoothed := smooth(profile)

	var sum float64
	best := lo
	for x := lo; x < hi; x++ {
		sum += smoothed[x]
		if smoothed[x] < smoothed[best] {
			best = x
		}
	}
	mean := sum / float64(hi-lo)
	contrast := mean - smoothed[best]
	if contrast < d.config.MinContrast {
		return Gutter{}, false
	}

	return Gutter{X: (float64(best) + 0.5) / float64(n), Contrast: contrast}, true
}

// SuggestSplit returns left and right page rects on either side of the gutter
func (d *GutterDetector) SuggestSplit(img image.Image) (left, right geometry.NormalizedRect, ok bool) {
	g, found := d.FindGutter(img)
	if !found {
		return left, right, false
	}

	m := d.config.Margin
	gap := m / 2
	left = geometry.NewRect(m, m, g.X-gap-m, 1-2*m)
	right = geometry.NewRect(g.X+gap, m, 1-m-(g.X+gap), 1-2*m)
	return left, right, true
}

// columnProfile returns the mean luminance per column in [0,1]
func (d *GutterDetector) columnProfile(img image.Image) []float64 {
	if d.config.SampleWidth > 0 && img.Bounds().Dx() > d.config.SampleWidth {
		img = imaging.Resize(img, d.config.SampleWidth, 0, imaging.Box)
	}
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil
	}

	profile := make([]float64, w)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			profile[x] += float64(row[x*4])
		}
	}
	for x := range profile {
		profile[x] /= float64(h) * 255
	}
	return profile
}

func smooth(p []float64) []float64 {
	out := make([]float64, len(p))
	for i := range p {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(p)-1 {
			hi = len(p) - 1
		}
		var s float64
		for j := lo; j <= hi; j++ {
			s += p[j]
		}
		out[i] = s / float64(hi-lo+1)
	}
	return out
}
