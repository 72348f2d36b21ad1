// Package crop implements the per-page crop model: a mode (single or split)
// and up to two named crop rectangles, one per role.
package crop

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/menta2k/page-splitter/pkg/geometry"
)

var (
	// ErrAlreadyExists is returned when adding a role that is already present
	ErrAlreadyExists = errors.New("crop rect for role already exists")
	// ErrNotApplicable is returned when an operation does not apply to the current state
	ErrNotApplicable = errors.New("operation not applicable to crop state")
	// ErrNotFound is returned when a rect id does not resolve
	ErrNotFound = errors.New("crop rect not found")
)

// Role identifies which output region a rectangle represents
type Role int

const (
	// Primary is the first (left, blue) region
	Primary Role = iota
	// Secondary is the second (right, red) region
	Secondary
)

func (r Role) String() string {
	switch r {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Mode selects single or split cropping
type Mode int

const (
	// Single keeps at most the primary rect
	Single Mode = iota
	// Split intends both a primary and a secondary rect
	Split
)

func (m Mode) String() string {
	if m == Split {
		return "split"
	}
	return "single"
}

// ParseMode parses "single" or "split"
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single", "":
		return Single, nil
	case "split":
		return Split, nil
	default:
		return Single, fmt.Errorf("unknown crop mode %q (use single or split)", s)
	}
}

// Default geometries
var (
	DefaultSingleRect = geometry.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8}
	DefaultLeftRect   = geometry.NormalizedRect{X: 0.05, Y: 0.1, Width: 0.4, Height: 0.8}
	DefaultRightRect  = geometry.NormalizedRect{X: 0.55, Y: 0.1, Width: 0.4, Height: 0.8}
)

// CropRect is one named crop region
type CropRect struct {
	ID   string                  `json:"id"`
	Rect geometry.NormalizedRect `json:"rect"`
	Role Role                    `json:"role"`
}

func newCropRect(role Role, r geometry.NormalizedRect) CropRect {
	return CropRect{
		ID:   uuid.NewString(),
		Rect: geometry.ClampMinSize(r, geometry.MinSize),
		Role: role,
	}
}

// State is the crop configuration of one page. It must be mutated through
// its methods so the one-rect-per-role invariant holds.
type State struct {
	mode  Mode
	rects []CropRect
}

// NewState creates a single-mode state holding the default primary rect
func NewState() *State {
	return &State{
		mode:  Single,
		rects: []CropRect{newCropRect(Primary, DefaultSingleRect)},
	}
}

// Mode returns the current mode
func (s *State) Mode() Mode {
	return s.mode
}

// Len returns the number of rects
func (s *State) Len() int {
	return len(s.rects)
}

// Rects returns a copy of the rects in insertion order
func (s *State) Rects() []CropRect {
	out := make([]CropRect, len(s.rects))
	copy(out, s.rects)
	return out
}

// Sorted returns a copy of the rects with primary before secondary
func (s *State) Sorted() []CropRect {
	out := s.Rects()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

// Rect looks up a rect by id
func (s *State) Rect(id string) (CropRect, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.rects[i], true
	}
	return CropRect{}, false
}

// RectByRole looks up a rect by role
func (s *State) RectByRole(role Role) (CropRect, bool) {
	if i := s.indexOfRole(role); i >= 0 {
		return s.rects[i], true
	}
	return CropRect{}, false
}

// Clone returns an independent copy. Rect ids are preserved.
func (s *State) Clone() *State {
	return &State{mode: s.mode, rects: s.Rects()}
}

// UpdateMode switches the mode and canonicalizes the rects. Switching to
// split always leaves both roles present; switching to single keeps only
// the primary rect.
func (s *State) UpdateMode(mode Mode) {
	s.mode = mode

	primary, hasPrimary := s.RectByRole(Primary)
	secondary, hasSecondary := s.RectByRole(Secondary)

	switch mode {
	case Single:
		if !hasPrimary {
			primary = newCropRect(Primary, DefaultSingleRect)
		}
		s.rects = []CropRect{primary}
	case Split:
		if !hasPrimary {
			primary = newCropRect(Primary, DefaultLeftRect)
		}
		if !hasSecondary {
			secondary = newCropRect(Secondary, DefaultRightRect)
		}
		s.rects = []CropRect{primary, secondary}
	}
}

// AddRect appends a rect with the default geometry for role. A secondary
// rect cannot be added in single mode.
func (s *State) AddRect(role Role) (CropRect, error) {
	if s.indexOfRole(role) >= 0 {
		return CropRect{}, fmt.Errorf("%w: %s", ErrAlreadyExists, role)
	}
	if s.mode == Single && role != Primary {
		return CropRect{}, fmt.Errorf("%w: %s rect in single mode", ErrNotApplicable, role)
	}

	r := newCropRect(role, s.defaultRect(role))
	s.rects = append(s.rects, r)
	return r, nil
}

// RemoveRect removes the rect with the given id and reports whether one
// was removed. Removing an unknown id is a no-op.
func (s *State) RemoveRect(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.rects = append(s.rects[:i], s.rects[i+1:]...)
	return true
}

// Align moves the secondary rect next to the primary one, to its right or
// left, matching its y and size. The primary rect never moves.
func (s *State) Align(toRight bool) error {
	pi, si := s.indexOfRole(Primary), s.indexOfRole(Secondary)
	if pi < 0 || si < 0 {
		return fmt.Errorf("%w: align needs both primary and secondary", ErrNotApplicable)
	}

	p := s.rects[pi].Rect
	x := p.MinX() - p.Width
	if toRight {
		x = p.MaxX()
	}
	s.rects[si].Rect = geometry.NormalizedRect{X: x, Y: p.Y, Width: p.Width, Height: p.Height}
	return nil
}

// SetRect replaces the geometry of a rect after applying the minimum size
// floor. Use it for resizes and manual coordinate edits.
func (s *State) SetRect(id string, r geometry.NormalizedRect) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.rects[i].Rect = geometry.ClampMinSize(r, geometry.MinSize)
	return nil
}

// MoveRect translates a rect to a new origin, kept inside the unit square
func (s *State) MoveRect(id string, x, y float64) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r := s.rects[i].Rect
	r.X, r.Y = x, y
	s.rects[i].Rect = geometry.ClampToContainer(r)
	return nil
}

func (s *State) defaultRect(role Role) geometry.NormalizedRect {
	if role == Secondary {
		return DefaultRightRect
	}
	if s.mode == Split {
		return DefaultLeftRect
	}
	return DefaultSingleRect
}

func (s *State) indexOf(id string) int {
	for i, r := range s.rects {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) indexOfRole(role Role) int {
	for i, r := range s.rects {
		if r.Role == role {
			return i
		}
	}
	return -1
}
