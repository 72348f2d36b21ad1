package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, reply any) (*httptest.Server, *ChatCompletionRequest) {
	t.Helper()
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestAnalyzeImage(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{
				"role":    "assistant",
				"content": `{"pages":[{"label":"single","confidence":0.9,"box":{"x":0.1,"y":0.1,"w":0.8,"h":0.8}}],"description":"a page"}`,
			},
		}},
	})

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	res, err := c.AnalyzeImage(context.Background(), "qwen", "find pages", "aGVsbG8=")
	require.NoError(t, err)
	require.False(t, res.Fallback)
	require.Len(t, res.Pages, 1)
	require.Equal(t, "a page", res.Description)

	require.Equal(t, "qwen", got.Model)
	require.Equal(t, 4096, got.MaxTokens)
	require.False(t, got.Stream)
}

func TestSimpleQueryContentParts(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{
				"role":    "assistant",
				"content": []map[string]any{{"type": "text", "text": "two pages"}},
			},
		}},
	})

	c, _ := NewClient(srv.URL)
	out, err := c.SimpleQuery(context.Background(), "qwen", "what", "")
	require.NoError(t, err)
	require.Equal(t, "two pages", out)
}

func TestServerErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, map[string]any{"error": "down"})
	c, _ := NewClient(srv.URL)
	_, err := c.AnalyzeImage(context.Background(), "m", "p", "")
	require.ErrorContains(t, err, "status 500")

	empty, _ := newServer(t, http.StatusOK, map[string]any{"choices": []any{}})
	c, _ = NewClient(empty.URL)
	_, err = c.SimpleQuery(context.Background(), "m", "p", "")
	require.ErrorContains(t, err, "no choices")
}

func TestNewClientDefaultURL(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	require.Equal(t, DefaultURL, c.baseURL)
}
