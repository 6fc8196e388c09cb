// Package imagegen 提供 Together 文生图接口客户端
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
)

const (
	defaultBaseURL = "https://api.together.xyz/v1"
	responseFormat = "b64_json"
)

// Client Together images/generations 客户端
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ media.ImageAPI = (*Client)(nil)

// NewClient 创建文生图客户端
func NewClient(cfg *config.Config) *Client {
	baseURL := strings.TrimRight(cfg.Media.Image.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Media.Image.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  cfg.Media.Image.APIKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type generationRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Steps          int    `json:"steps,omitempty"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GenerateImage 调用 /images/generations，返回第一张图片的 base64 数据
func (c *Client) GenerateImage(ctx context.Context, req *media.ImageRequest) (*media.ImageResponse, error) {
	n := req.N
	if n <= 0 {
		n = 1
	}
	payload, err := json.Marshal(generationRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		N:              n,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out generationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(out.Data) == 0 {
		return &media.ImageResponse{}, nil
	}
	return &media.ImageResponse{B64JSON: out.Data[0].B64JSON}, nil
}
