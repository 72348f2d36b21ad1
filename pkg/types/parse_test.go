package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAnalysisResult(t *testing.T) {
	raw := "```json\n{\n  // two facing pages\n  \"pages\": [\n    {\"label\": \"left\", \"confidence\": 0.9, \"box\": {\"x\": 0.02, \"y\": 0.05, \"w\": 0.47, \"h\": 0.9}},\n    {\"label\": \"right\", \"confidence\": 0.8, \"box\": {\"x\": 0.51, \"y\": 0.05, \"w\": 0.47, \"h\": 0.9}},\n  ],\n  \"description\": \"open book\",\n}\n```"

	res := ParseAnalysisResult(raw)
	require.False(t, res.Fallback)
	require.Len(t, res.Pages, 2)
	require.Equal(t, "left", res.Pages[0].Label)
	require.Equal(t, 0.51, res.Pages[1].Box.X)
	require.Equal(t, "open book", res.Description)
}

func TestParseAnalysisResultFallbacks(t *testing.T) {
	for _, raw := range []string{
		"I see a book",
		"{not json",
		`{"pages": [], "description": "nothing"}`,
	} {
		res := ParseAnalysisResult(raw)
		require.True(t, res.Fallback, raw)
		require.Len(t, res.Pages, 1)
	}
}

func TestBoxRectAppliesFloor(t *testing.T) {
	r := Box{X: 0.2, Y: 0.3, W: 0, H: -1}.Rect()
	require.Equal(t, 0.2, r.X)
	require.Equal(t, 0.01, r.Width)
	require.Equal(t, 0.01, r.Height)
}
