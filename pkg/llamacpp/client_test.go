package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, answer any, seen *ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatEndpoint, r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "x",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectObjects(t *testing.T) {
	var seen ChatCompletionRequest
	srv := chatServer(t, "```json\n{\"objects\":[{\"label\":\"cat\",\"confidence\":0.8,\"box\":{\"x\":0.5,\"y\":0.25,\"w\":0.25,\"h\":0.5}}]}\n```", &seen)

	c, err := NewClient(srv.URL+"/", nil)
	require.NoError(t, err)

	got, err := c.DetectObjects(context.Background(), "llava", "find objects", "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, got.Objects, 1)
	assert.Equal(t, "cat", got.Objects[0].Label)
	assert.Equal(t, 0.25, got.Objects[0].Box.Y)

	assert.Equal(t, "llava", seen.Model)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
}

func TestSimpleQueryWithContentParts(t *testing.T) {
	srv := chatServer(t, []any{map[string]any{"type": "text", "text": "a cat"}}, nil)

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	got, err := c.SimpleQuery(context.Background(), "llava", "describe", "")
	require.NoError(t, err)
	assert.Equal(t, "a cat", got)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.DetectObjects(context.Background(), "m", "p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("localhost:8080", nil)
	assert.Error(t, err)

	c, err := NewClient("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)
}
