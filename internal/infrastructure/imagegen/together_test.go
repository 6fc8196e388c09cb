package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
)

func newTestClient(url string) *Client {
	cfg := &config.Config{}
	cfg.Media.Image.BaseURL = url
	cfg.Media.Image.APIKey = "test-key"
	return NewClient(cfg)
}

func TestClient_GenerateImage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"aW1hZ2U="}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).GenerateImage(context.Background(), &media.ImageRequest{
		Prompt: "A red door",
		Model:  "black-forest-labs/FLUX.1-dev",
		Width:  1024,
		Height: 768,
		Steps:  28,
		N:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, "aW1hZ2U=", resp.B64JSON)

	assert.Equal(t, "A red door", got["prompt"])
	assert.Equal(t, "black-forest-labs/FLUX.1-dev", got["model"])
	assert.EqualValues(t, 1024, got["width"])
	assert.EqualValues(t, 768, got["height"])
	assert.EqualValues(t, 28, got["steps"])
	assert.EqualValues(t, 1, got["n"])
	assert.Equal(t, "b64_json", got["response_format"])
}

func TestClient_GenerateImageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateImage(context.Background(), &media.ImageRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key provided")
	assert.Contains(t, err.Error(), "401")
}

func TestClient_GenerateImageNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream gateway timeout"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateImage(context.Background(), &media.ImageRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream gateway timeout")
}
