// Package geometry holds the normalized rectangle type shared by the crop
// model and the export pipeline, plus the clamping and denormalization math.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// MinSize is the smallest width or height a normalized rectangle may have
const MinSize = 0.01

// NormalizedRect is a rectangle expressed as fractions of an image's width
// and height. Origin is top-left. X+Width and Y+Height may exceed 1.
type NormalizedRect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewRect creates a rectangle with the minimum size floor applied
func NewRect(x, y, width, height float64) NormalizedRect {
	return ClampMinSize(NormalizedRect{X: x, Y: y, Width: width, Height: height}, MinSize)
}

// MinX returns the left edge
func (r NormalizedRect) MinX() float64 { return r.X }

// MaxX returns the right edge
func (r NormalizedRect) MaxX() float64 { return r.X + r.Width }

// MinY returns the top edge
func (r NormalizedRect) MinY() float64 { return r.Y }

// MaxY returns the bottom edge
func (r NormalizedRect) MaxY() float64 { return r.Y + r.Height }

// String formats the rectangle as x,y,w,h
func (r NormalizedRect) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", r.X, r.Y, r.Width, r.Height)
}

// PixelRect is a denormalized rectangle in (fractional) pixel units
type PixelRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Denormalize scales a normalized rectangle to a container of the given
// pixel size. No rounding happens here.
func Denormalize(r NormalizedRect, containerWidth, containerHeight float64) PixelRect {
	return PixelRect{
		X:      r.X * containerWidth,
		Y:      r.Y * containerHeight,
		Width:  r.Width * containerWidth,
		Height: r.Height * containerHeight,
	}
}

// Rectangle rounds each edge of the pixel rectangle to the nearest integer.
// This is the only place pixel rounding happens.
func (p PixelRect) Rectangle() image.Rectangle {
	x0 := int(math.Round(p.X))
	y0 := int(math.Round(p.Y))
	x1 := int(math.Round(p.X + p.Width))
	y1 := int(math.Round(p.Y + p.Height))
	return image.Rect(x0, y0, x1, y1)
}

// ClampMinSize forces width and height up to minFraction when they fall
// below it. Negative sizes are replaced by minFraction, the origin is kept.
func ClampMinSize(r NormalizedRect, minFraction float64) NormalizedRect {
	if r.Width < minFraction {
		r.Width = minFraction
	}
	if r.Height < minFraction {
		r.Height = minFraction
	}
	return r
}

// ClampToContainer keeps a translated rectangle inside the unit square.
// A rectangle larger than the container is pinned at 0 on that axis.
func ClampToContainer(r NormalizedRect) NormalizedRect {
	r.X = clampOrigin(r.X, 1-r.Width)
	r.Y = clampOrigin(r.Y, 1-r.Height)
	return r
}

func clampOrigin(v, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}
