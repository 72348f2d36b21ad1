// Package export turns a snapshot of pages and their crop states into
// cropped, renamed image files.
package export

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/menta2k/page-splitter/internal/utils"
	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/processing"
)

// Page is the pipeline's private copy of one registry page
type Page struct {
	ID         string
	SourcePath string
	Crop       *crop.State
}

// ProgressFunc receives the fraction of pages finished, in [0,1]
type ProgressFunc func(fraction float64)

// Pipeline exports pages one at a time, one rect at a time
type Pipeline struct {
	processor *processing.Processor
	logger    *slog.Logger
}

// NewPipeline creates a pipeline using the default processor and logger
func NewPipeline() *Pipeline {
	return &Pipeline{
		processor: processing.NewProcessor(),
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Export crops every rect of every page and writes the results into the
// destination folder. It is not re-entrant and pages must not be shared
// with code that keeps editing them.
//
// onProgress is called once per page from a separate goroutine; the final
// call (1.0) has always happened by the time Export returns.
func (p *Pipeline) Export(pages []Page, sourceFolder string, opts Options, onProgress ProgressFunc) Summary {
	dest := opts.Destination(sourceFolder)
	if err := utils.EnsureDir(dest); err != nil {
		p.logger.Error("Failed to create output folder", "dest", dest, "error", err)
		return Summary{Destination: dest, Err: fmt.Errorf("%w: %s: %v", ErrOutputDir, dest, err)}
	}

	progress, wait := dispatchProgress(len(pages), onProgress)
	defer wait()

	run := &run{
		pipeline: p,
		opts:     opts,
		dest:     dest,
		seq:      1,
		summary:  Summary{Destination: dest, Pages: len(pages)},
	}

	p.logger.Info("Export started", "pages", len(pages), "dest", dest, "format", opts.Format, "naming", opts.FilenameMode)
	for i, page := range pages {
		run.exportPage(page)
		progress <- float64(i+1) / float64(len(pages))
	}
	close(progress)

	run.summary.Written = run.seq - 1
	p.logger.Info("Export finished", "written", run.summary.Written, "failed", run.summary.Failed())
	return run.summary
}

// dispatchProgress starts the goroutine that forwards progress values to
// fn. The returned channel never blocks the sender for up to n values; wait
// blocks until every value sent before close has been delivered.
func dispatchProgress(n int, fn ProgressFunc) (chan<- float64, func()) {
	ch := make(chan float64, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range ch {
			if fn != nil {
				fn(v)
			}
		}
	}()
	return ch, func() { <-done }
}

type run struct {
	pipeline *Pipeline
	opts     Options
	dest     string
	seq      int
	summary  Summary
}

// exportPage handles one page. The decoded image lives only for the
// duration of this call.
func (r *run) exportPage(page Page) {
	log := r.pipeline.logger.With("page", filepath.Base(page.SourcePath))

	img, err := r.pipeline.processor.LoadImage(page.SourcePath)
	if err != nil {
		log.Warn("Failed to decode page", "error", err)
		r.summary.fail(page, nil, StageDecode, err)
		return
	}
	if page.Crop == nil {
		return
	}
	for _, rect := range page.Crop.Sorted() {
		r.exportRect(log, img, page, rect)
	}
}

func (r *run) exportRect(log *slog.Logger, img image.Image, page Page, rect crop.CropRect) {
	cropped, err := r.pipeline.processor.CropImage(img, rect.Rect)
	if err != nil {
		log.Warn("Failed to crop", "role", rect.Role, "rect", rect.Rect, "error", err)
		r.summary.fail(page, &rect, StageCrop, err)
		return
	}

	name := r.opts.Filename(page.SourcePath, r.seq)
	path := filepath.Join(r.dest, name)
	size, err := r.pipeline.processor.SaveImage(cropped, path, r.opts.Format.Extension(), JPEGQuality)
	if err != nil {
		log.Warn("Failed to write crop", "role", rect.Role, "path", path, "error", err)
		r.summary.fail(page, &rect, StageWrite, err)
		return
	}

	log.Debug("Wrote crop", "role", rect.Role, "path", path, "size", utils.FormatFileSize(size))
	r.summary.Files = append(r.summary.Files, path)
	r.seq++
}
