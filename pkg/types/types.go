package types

import "github.com/menta2k/page-splitter/pkg/geometry"

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect converts the box to a normalized rect
func (b Box) Rect() geometry.NormalizedRect {
	return geometry.NewRect(b.X, b.Y, b.W, b.H)
}

// DetectedPage is one page region reported by a vision model
type DetectedPage struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult contains the page regions found in a scan
type AnalysisResult struct {
	Pages       []DetectedPage `json:"pages"`
	Description string         `json:"description"`
	Fallback    bool           `json:"-"`
}

// DetectionOptions controls how images are sent to vision models
type DetectionOptions struct {
	Model       string
	SendFormat  string
	SendMaxSize int
	SendQuality int
}
