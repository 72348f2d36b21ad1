// Package pagesplitter splits scanned book pages into separate images.
//
// A Session loads every supported image of a folder into a registry, lets
// the caller shape one or two crop rectangles per page, and exports the
// crops in a single sequential run.
//
// Basic usage:
//
//	s := pagesplitter.New()
//	if _, err := s.Load("scans"); err != nil {
//		log.Fatal(err)
//	}
//
//	// two facing pages on every scan
//	first := s.Registry().Pages()[0]
//	first.Crop.UpdateMode(crop.Split)
//	p, _ := first.Crop.RectByRole(crop.Primary)
//	_ = first.Crop.SetRect(p.ID, crop.DefaultLeftRect)
//	s.Registry().ApplySettingsToAll(first.ID)
//
//	summary, err := s.Export(func(f float64) { fmt.Printf("%.0f%%\n", f*100) })
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(summary)
//
// The package consists of these components:
//
//  1. Geometry (pkg/geometry): normalized rectangles and pixel rounding
//  2. Crop (pkg/crop): per-page crop state in single or split mode
//  3. Registry (pkg/registry): the ordered pages of a folder and the selection
//  4. Export (pkg/export): the batch pipeline, file naming and summaries
//  5. Vision (pkg/vision) and Detection (pkg/detection): automatic page geometry
package pagesplitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/detection"
	"github.com/menta2k/page-splitter/pkg/export"
	"github.com/menta2k/page-splitter/pkg/processing"
	"github.com/menta2k/page-splitter/pkg/registry"
	"github.com/menta2k/page-splitter/pkg/types"
	"github.com/menta2k/page-splitter/pkg/vision"
)

// Version of the page splitter library
const Version = "1.0.0"

var (
	// ErrExportInProgress is returned when an export is started while another runs
	ErrExportInProgress = errors.New("export already in progress")
	// ErrNoDetector is returned by DetectPages when no model detector is set
	ErrNoDetector = errors.New("no page detector configured")
	// ErrPageNotFound is returned for an unknown page id
	ErrPageNotFound = errors.New("page not found")
	// ErrNoDestination is returned by Export when no folder was loaded and
	// no output folder is set
	ErrNoDestination = errors.New("no source folder loaded and no output folder set")
)

// Session ties a registry to an export pipeline and the page detectors
type Session struct {
	registry   *registry.Registry
	pipeline   *export.Pipeline
	processor  *processing.Processor
	gutter     *vision.GutterDetector
	detector   *detection.Detector
	detectOpts types.DetectionOptions
	logger     *slog.Logger
	exporting  atomic.Bool
}

// New creates a session with default components
func New() *Session {
	return &Session{
		registry:  registry.New(),
		pipeline:  export.NewPipeline(),
		processor: processing.NewProcessor(),
		gutter:    vision.New(),
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger of the session and its components
func (s *Session) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	s.registry.SetLogger(logger)
	s.pipeline.SetLogger(logger)
}

// SetGutterDetector replaces the gutter detector
func (s *Session) SetGutterDetector(g *vision.GutterDetector) {
	if g != nil {
		s.gutter = g
	}
}

// SetDetector enables model-assisted page detection
func (s *Session) SetDetector(d *detection.Detector, opts types.DetectionOptions) {
	s.detector = d
	s.detectOpts = opts
}

// Registry returns the page registry. It must not be edited while an
// export started with ExportAsync is still taking its snapshot.
func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Load replaces the pages with the images of folder
func (s *Session) Load(folder string) (int, error) {
	return s.registry.LoadFromFolder(folder)
}

// Exporting reports whether an export is running
func (s *Session) Exporting() bool {
	return s.exporting.Load()
}

// Export runs the pipeline on a snapshot of the registry and blocks until
// it finishes. A second call while a run is active fails with
// ErrExportInProgress.
func (s *Session) Export(onProgress export.ProgressFunc) (export.Summary, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return export.Summary{}, ErrExportInProgress
	}
	defer s.exporting.Store(false)

	pages, opts := s.registry.Snapshot()
	if err := s.checkDestination(opts); err != nil {
		return export.Summary{}, err
	}
	return s.pipeline.Export(pages, s.registry.SourceFolder(), opts, onProgress), nil
}

// ExportAsync snapshots the registry and runs the pipeline on a background
// goroutine. The returned channel yields the summary once and is closed.
func (s *Session) ExportAsync(onProgress export.ProgressFunc) (<-chan export.Summary, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}

	pages, opts := s.registry.Snapshot()
	if err := s.checkDestination(opts); err != nil {
		s.exporting.Store(false)
		return nil, err
	}
	source := s.registry.SourceFolder()

	out := make(chan export.Summary, 1)
	go func() {
		defer close(out)
		defer s.exporting.Store(false)
		out <- s.pipeline.Export(pages, source, opts, onProgress)
	}()
	return out, nil
}

func (s *Session) checkDestination(opts export.Options) error {
	if s.registry.SourceFolder() == "" && opts.OutputFolder == "" {
		return ErrNoDestination
	}
	return nil
}

// DetectGutter looks for the seam of a two-page spread and, when found,
// switches the page to split mode with one rect on each side. It reports
// whether the crop state changed.
func (s *Session) DetectGutter(pageID string) (bool, error) {
	page, ok := s.registry.Page(pageID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	img, err := s.processor.LoadImage(page.SourcePath)
	if err != nil {
		return false, err
	}

	left, right, found := s.gutter.SuggestSplit(img)
	if !found {
		s.logger.Debug("No gutter found", "page", page.Name())
		return false, nil
	}

	page.Crop.UpdateMode(crop.Split)
	p, _ := page.Crop.RectByRole(crop.Primary)
	sec, _ := page.Crop.RectByRole(crop.Secondary)
	if err := page.Crop.SetRect(p.ID, left); err != nil {
		return false, err
	}
	if err := page.Crop.SetRect(sec.ID, right); err != nil {
		return false, err
	}

	s.logger.Info("Gutter detected", "page", page.Name(), "left", left.String(), "right", right.String())
	return true, nil
}

// DetectPages asks the vision model for the page regions of a scan and
// applies them to its crop state
func (s *Session) DetectPages(ctx context.Context, pageID string) (*types.AnalysisResult, error) {
	if s.detector == nil {
		return nil, ErrNoDetector
	}
	page, ok := s.registry.Page(pageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	img, err := s.processor.LoadImage(page.SourcePath)
	if err != nil {
		return nil, err
	}

	b64, err := s.processor.PrepareImageForModel(img, s.detectOpts.SendFormat, s.detectOpts.SendMaxSize, s.detectOpts.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := s.detector.DetectPages(ctx, s.detectOpts.Model, b64)
	if err != nil {
		return nil, fmt.Errorf("page detection failed for %s: %w", page.Name(), err)
	}

	if detection.ApplyToState(page.Crop, result) {
		s.logger.Info("Pages detected", "page", page.Name(), "count", len(result.Pages), "mode", page.Crop.Mode().String())
	} else {
		s.logger.Warn("Page detection fell back", "page", page.Name(), "reason", result.Description)
	}
	return result, nil
}

// Preview writes a copy of the page with its crop rects outlined. The
// output format follows the file extension.
func (s *Session) Preview(pageID, path string) error {
	page, ok := s.registry.Page(pageID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	img, err := s.processor.LoadImage(page.SourcePath)
	if err != nil {
		return err
	}

	var rects []processing.OverlayRect
	for _, r := range page.Crop.Sorted() {
		c := processing.PrimaryColor
		if r.Role == crop.Secondary {
			c = processing.SecondaryColor
		}
		rects = append(rects, processing.OverlayRect{Rect: r.Rect, Color: c})
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, err = s.processor.SaveImage(s.processor.CreateOverlay(img, rects), path, format, export.JPEGQuality)
	return err
}
