// Package registry keeps the ordered list of pages loaded from a source
// folder, each with its own crop state, plus the page and crop selection.
package registry

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/menta2k/page-splitter/internal/utils"
	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/export"
)

// Page is one source image and its crop configuration
type Page struct {
	ID         string
	SourcePath string
	Crop       *crop.State
}

// Name returns the source file name
func (p Page) Name() string {
	return filepath.Base(p.SourcePath)
}

func (p Page) clone() export.Page {
	return export.Page{ID: p.ID, SourcePath: p.SourcePath, Crop: p.Crop.Clone()}
}

// Registry owns the pages of one source folder. It is not safe for
// concurrent use; export works on a Snapshot.
type Registry struct {
	sourceFolder   string
	pages          []*Page
	selectedPageID string
	selectedCropID string
	options        export.Options
	logger         *slog.Logger
}

// New creates an empty registry with default export options
func New() *Registry {
	return &Registry{
		options: export.DefaultOptions(),
		logger:  slog.Default(),
	}
}

// SetLogger replaces the logger
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// LoadFromFolder replaces the pages with the supported images found
// directly in path, sorted by file name. Each page gets a fresh default
// crop state. On error the previous pages and selection are kept.
func (r *Registry) LoadFromFolder(path string) (int, error) {
	files, err := utils.ListImageFiles(path)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", path, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})

	pages := make([]*Page, 0, len(files))
	for _, f := range files {
		pages = append(pages, &Page{
			ID:         uuid.NewString(),
			SourcePath: f,
			Crop:       crop.NewState(),
		})
	}

	r.sourceFolder = path
	r.pages = pages
	r.selectedCropID = ""
	r.selectedPageID = ""
	if len(pages) > 0 {
		r.selectedPageID = pages[0].ID
	}

	r.logger.Info("Loaded folder", "path", path, "pages", len(pages))
	return len(pages), nil
}

// SourceFolder returns the folder pages were loaded from
func (r *Registry) SourceFolder() string {
	return r.sourceFolder
}

// Len returns the number of pages
func (r *Registry) Len() int {
	return len(r.pages)
}

// Pages returns the pages in order. The pointers are live.
func (r *Registry) Pages() []*Page {
	out := make([]*Page, len(r.pages))
	copy(out, r.pages)
	return out
}

// Page looks up a page by id
func (r *Registry) Page(id string) (*Page, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.pages[i], true
	}
	return nil, false
}

// Options returns the export options
func (r *Registry) Options() export.Options {
	return r.options
}

// SetOptions replaces the export options
func (r *Registry) SetOptions(opts export.Options) {
	r.options = opts
}

// ApplySettingsToAll copies the crop state of the source page onto every
// page, itself included. It returns false if the id is unknown.
func (r *Registry) ApplySettingsToAll(sourcePageID string) bool {
	src, ok := r.Page(sourcePageID)
	if !ok {
		return false
	}

	template := src.Crop.Clone()
	for _, p := range r.pages {
		p.Crop = template.Clone()
	}

	if _, ok := r.SelectedCrop(); !ok {
		r.selectedCropID = ""
	}
	r.logger.Debug("Applied crop settings to all pages", "source", src.Name(), "pages", len(r.pages))
	return true
}

// SelectPage selects a page by id and clears the crop selection
func (r *Registry) SelectPage(id string) bool {
	if r.indexOf(id) < 0 {
		return false
	}
	if id != r.selectedPageID {
		r.selectedCropID = ""
	}
	r.selectedPageID = id
	return true
}

// SelectedPage returns the selected page, if any
func (r *Registry) SelectedPage() (*Page, bool) {
	if r.selectedPageID == "" {
		return nil, false
	}
	return r.Page(r.selectedPageID)
}

// SelectNext moves the selection to the following page. No wrap-around.
func (r *Registry) SelectNext() bool {
	return r.step(1)
}

// SelectPrevious moves the selection to the preceding page. No wrap-around.
func (r *Registry) SelectPrevious() bool {
	return r.step(-1)
}

func (r *Registry) step(delta int) bool {
	i := r.indexOf(r.selectedPageID)
	if i < 0 {
		return false
	}
	next := i + delta
	if next < 0 || next >= len(r.pages) {
		return false
	}
	return r.SelectPage(r.pages[next].ID)
}

// SelectCrop selects a rect of the selected page
func (r *Registry) SelectCrop(id string) bool {
	page, ok := r.SelectedPage()
	if !ok {
		return false
	}
	if _, ok := page.Crop.Rect(id); !ok {
		return false
	}
	r.selectedCropID = id
	return true
}

// SelectedCrop resolves the crop selection against the selected page
func (r *Registry) SelectedCrop() (crop.CropRect, bool) {
	if r.selectedCropID == "" {
		return crop.CropRect{}, false
	}
	page, ok := r.SelectedPage()
	if !ok {
		return crop.CropRect{}, false
	}
	return page.Crop.Rect(r.selectedCropID)
}

// RemoveCrop removes a rect from the selected page and clears the crop
// selection if it pointed at that rect.
func (r *Registry) RemoveCrop(id string) bool {
	page, ok := r.SelectedPage()
	if !ok {
		return false
	}
	removed := page.Crop.RemoveRect(id)
	if r.selectedCropID == id {
		r.selectedCropID = ""
	}
	return removed
}

// Snapshot returns deep copies of the pages and the export options for a
// pipeline run, so later edits do not race with the export.
func (r *Registry) Snapshot() ([]export.Page, export.Options) {
	pages := make([]export.Page, 0, len(r.pages))
	for _, p := range r.pages {
		pages = append(pages, p.clone())
	}
	return pages, r.options
}

func (r *Registry) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range r.pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}
