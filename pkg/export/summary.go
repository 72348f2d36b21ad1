package export

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/menta2k/page-splitter/pkg/crop"
)

// ErrOutputDir wraps a failure to create the destination folder
var ErrOutputDir = errors.New("cannot create output folder")

// Stage names the step a failure happened in
type Stage string

const (
	StageDecode Stage = "decode"
	StageCrop   Stage = "crop"
	StageWrite  Stage = "write"
)

// Failure describes one page or rect that was not exported
type Failure struct {
	Page  string
	Role  *crop.Role
	Stage Stage
	Err   error
}

func (f Failure) String() string {
	if f.Role != nil {
		return fmt.Sprintf("%s (%s): %s: %v", f.Page, *f.Role, f.Stage, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Page, f.Stage, f.Err)
}

// Summary is the outcome of one export run
type Summary struct {
	Destination string
	Pages       int
	// Written is the number of image files written
	Written  int
	Files    []string
	Failures []Failure
	// Err is set when the run was aborted before any page was processed
	Err error
}

// Failed returns the aggregate failure count: pages that failed to decode
// plus rects that failed to crop or write
func (s Summary) Failed() int {
	return len(s.Failures)
}

// OK reports whether the run completed without any failure
func (s Summary) OK() bool {
	return s.Err == nil && len(s.Failures) == 0
}

// String renders the user-facing summary text
func (s Summary) String() string {
	if s.Err != nil {
		return fmt.Sprintf("Export failed: %v", s.Err)
	}
	if len(s.Failures) == 0 {
		return fmt.Sprintf("Export complete: %d images saved to %s", s.Written, s.Destination)
	}
	return fmt.Sprintf("Export complete: %d images saved to %s, %d failed", s.Written, s.Destination, len(s.Failures))
}

func (s *Summary) fail(page Page, rect *crop.CropRect, stage Stage, err error) {
	f := Failure{Page: filepath.Base(page.SourcePath), Stage: stage, Err: err}
	if rect != nil {
		role := rect.Role
		f.Role = &role
	}
	s.Failures = append(s.Failures, f)
}
