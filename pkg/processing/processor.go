package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/page-splitter/pkg/geometry"
)

// ErrEmptyCrop is returned when a crop rectangle has no pixels inside the image
var ErrEmptyCrop = errors.New("empty crop rectangle")

// Overlay colors per crop role
var (
	PrimaryColor   = color.NRGBA{0, 122, 255, 255}
	SecondaryColor = color.NRGBA{255, 59, 48, 255}
)

// Processor handles image decoding, cropping and encoding
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	img, openErr := imaging.Open(path)
	if openErr == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("failed to decode %s: %w", path, openErr)
}

// PixelBounds converts a normalized rect to the pixel rectangle it covers
// inside img. The result may be empty.
func (p *Processor) PixelBounds(img image.Image, rect geometry.NormalizedRect) image.Rectangle {
	bounds := img.Bounds()
	px := geometry.Denormalize(rect, float64(bounds.Dx()), float64(bounds.Dy())).Rectangle()
	return px.Add(bounds.Min).Intersect(bounds)
}

// CropImage crops img to a normalized rect. Parts of the rect outside the
// image are dropped; ErrEmptyCrop is returned if nothing remains.
func (p *Processor) CropImage(img image.Image, rect geometry.NormalizedRect) (image.Image, error) {
	r := p.PixelBounds(img, rect)
	if r.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCrop, rect)
	}
	return imaging.Crop(img, r), nil
}

// Encode writes img to w. format is jpg, png or webp.
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int) error {
	switch strings.ToLower(format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// SaveImage encodes img into a new file at path. A partially written file
// is removed on failure.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	cw := &countingWriter{w: f}
	err = p.Encode(cw, img, format, quality)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return cw.n, nil
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// OverlayRect is one outline drawn by CreateOverlay
type OverlayRect struct {
	Rect  geometry.NormalizedRect
	Color color.NRGBA
}

// CreateOverlay returns a copy of img with the given crop rects outlined
func (p *Processor) CreateOverlay(img image.Image, rects []OverlayRect) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	stroke := int(math.Max(2, 0.004*float64(minInt(w, h)))) // ~0.4% of min side
	for _, r := range rects {
		drawBox(nrgba, r.Rect, w, h, r.Color, stroke)
	}

	// gutter marker at the horizontal center
	cx := w / 2
	mark := int(math.Max(4, 0.01*float64(minInt(w, h))))
	drawVLine(nrgba, cx, 0, mark, color.NRGBA{255, 204, 0, 255})
	drawVLine(nrgba, cx, h-mark, h, color.NRGBA{255, 204, 0, 255})

	return nrgba
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// Helper functions
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// boxToPixels rounds like the export crop and keeps at least one pixel
func boxToPixels(box geometry.NormalizedRect, w, h int) (int, int, int, int) {
	r := geometry.Denormalize(box, float64(w), float64(h)).Rectangle().Intersect(image.Rect(0, 0, w, h))
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, box geometry.NormalizedRect, w, h int, color color.NRGBA, stroke int) {
	x0, y0, x1, y1 := boxToPixels(box, w, h)
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, color)
		drawHLine(img, y1-1-s, x0, x1, color)
		drawVLine(img, x0+s, y0, y1, color)
		drawVLine(img, x1-1-s, y0, y1, color)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
