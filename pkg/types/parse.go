package types

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// FallbackResult is returned when a model response cannot be used. It
// describes a single page covering the default crop area.
func FallbackResult(reason string) *AnalysisResult {
	return &AnalysisResult{
		Pages: []DetectedPage{{
			Label:      "none",
			Confidence: 0,
			Box:        Box{X: 0.1, Y: 0.1, W: 0.8, H: 0.8},
		}},
		Description: reason,
		Fallback:    true,
	}
}

// ParseAnalysisResult parses the JSON response from a vision model. Malformed
// responses yield a fallback result rather than an error.
func ParseAnalysisResult(raw string) *AnalysisResult {
	raw = SanitizeModelJSON(raw)

	if !strings.HasPrefix(raw, "{") {
		return FallbackResult("model returned non-JSON response")
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return FallbackResult("failed to parse model response")
	}
	if len(result.Pages) == 0 {
		return FallbackResult("no pages in model response")
	}
	return &result
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
