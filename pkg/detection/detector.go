package detection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/menta2k/page-splitter/pkg/client"
	"github.com/menta2k/page-splitter/pkg/crop"
	"github.com/menta2k/page-splitter/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks the model for the page regions of a scan
const DefaultPrompt = `You are a document page locator for scanned books and papers.

Return JSON only:
{
  "pages": [
    {
      "label": "left|right|single",
      "confidence": 0.0,
      "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
    }
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- Return one entry per physical page visible in the scan, at most two.
- Each box should tightly include the printed page area and exclude the scanner bed, fingers, and the dark gutter between facing pages.
- For a two-page spread, list the left page first.
- If no page edges are visible, return a single page with box {"x":0.1,"y":0.1,"w":0.8,"h":0.8}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// MinConfidence is the score below which a detected page is ignored
const MinConfidence = 0.2

// Detector finds page regions using vision models
type Detector struct {
	client client.VisionClient
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client}
}

// DetectPages analyzes an image and returns at most two page regions, left to right
func (d *Detector) DetectPages(ctx context.Context, model, imageB64 string) (*types.AnalysisResult, error) {
	return d.DetectPagesWithPrompt(ctx, model, imageB64, DefaultPrompt)
}

// DetectPagesWithPrompt analyzes an image with a custom prompt
func (d *Detector) DetectPagesWithPrompt(ctx context.Context, model, imageB64, prompt string) (*types.AnalysisResult, error) {
	result, err := d.client.AnalyzeImage(ctx, model, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("vision client returned no result")
	}
	return normalizeResult(result), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// ApplyToState rewrites a crop state from a detection result. One page
// selects single mode, two pages select split mode with the leftmost page
// as primary. A fallback result leaves the state untouched.
func ApplyToState(state *crop.State, result *types.AnalysisResult) bool {
	if result == nil || result.Fallback || len(result.Pages) == 0 {
		return false
	}

	roles := []crop.Role{crop.Primary}
	if len(result.Pages) == 1 {
		state.UpdateMode(crop.Single)
	} else {
		state.UpdateMode(crop.Split)
		roles = append(roles, crop.Secondary)
	}

	for i, role := range roles {
		r, ok := state.RectByRole(role)
		if !ok {
			continue
		}
		_ = state.SetRect(r.ID, result.Pages[i].Box.Rect())
	}
	return true
}

func normalizeResult(result *types.AnalysisResult) *types.AnalysisResult {
	if result.Fallback {
		return result
	}

	pages := make([]types.DetectedPage, 0, len(result.Pages))
	for _, p := range result.Pages {
		if p.Confidence > 0 && p.Confidence < MinConfidence {
			continue
		}
		p.Label = strings.ToLower(strings.TrimSpace(p.Label))
		p.Box = normalizeBox(p.Box)
		if p.Box.W <= 0 || p.Box.H <= 0 {
			continue
		}
		pages = append(pages, p)
	}

	if len(pages) == 0 {
		fb := types.FallbackResult("no usable page regions")
		fb.Description = result.Description
		return fb
	}

	// keep the two most confident, then order left to right
	if len(pages) > 2 {
		sort.SliceStable(pages, func(i, j int) bool {
			return pages[i].Confidence > pages[j].Confidence
		})
		pages = pages[:2]
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Box.X < pages[j].Box.X
	})

	result.Pages = pages
	return result
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
