package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/require"
)

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("not a url")
	require.Error(t, err)

	_, err = NewClient("http://localhost:11434/api/chat")
	require.NoError(t, err)
}

func TestAnalyzeImage(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model: got.Model,
			Message: api.Message{
				Role:    "assistant",
				Content: "```json\n{\"pages\":[{\"label\":\"left\",\"confidence\":0.8,\"box\":{\"x\":0,\"y\":0,\"w\":0.5,\"h\":1}},{\"label\":\"right\",\"confidence\":0.8,\"box\":{\"x\":0.5,\"y\":0,\"w\":0.5,\"h\":1}}]}\n```",
			},
			Done: true,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	res, err := c.AnalyzeImage(context.Background(), "minicpm-v4", "find pages", img)
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	require.Equal(t, "right", res.Pages[1].Label)

	require.Equal(t, "minicpm-v4", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Images, 1)
	require.Equal(t, 4096.0, got.Options["num_ctx"])
}

func TestAnalyzeImageBadBase64(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.AnalyzeImage(context.Background(), "m", "p", "%%%")
	require.ErrorContains(t, err, "base64")
}
