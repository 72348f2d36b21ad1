package client

import (
	"context"

	"github.com/menta2k/page-splitter/pkg/types"
)

// VisionClient is a vision model backend able to locate pages in a scan
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}
