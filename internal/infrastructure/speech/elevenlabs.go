// Package speech 提供 ElevenLabs 文本转语音客户端
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	// maxErrorBody 错误响应最多读取的字节数
	maxErrorBody = 4096
	// maxAudioBody 单次合成音频的上限
	maxAudioBody = 64 << 20
)

// Client ElevenLabs text-to-speech 客户端
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ media.SpeechAPI = (*Client)(nil)

// NewClient 创建语音客户端
func NewClient(cfg *config.Config) *Client {
	baseURL := strings.TrimRight(cfg.Media.Speech.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Media.Speech.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  cfg.Media.Speech.APIKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type convertRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Convert 调用 /v1/text-to-speech/{voice_id}，返回完整下载到内存的音频（调用方负责 Close）。
// http.Client.Timeout 覆盖到读完响应体为止，播放耗时不计入超时。
func (c *Client) Convert(ctx context.Context, req *media.SpeechRequest) (io.ReadCloser, error) {
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, fmt.Errorf("voice id is required")
	}
	payload, err := json.Marshal(convertRequest{Text: req.Text, ModelID: req.ModelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.BaseURL + "/v1/text-to-speech/" + url.PathEscape(req.VoiceID)
	if req.OutputFormat != "" {
		endpoint += "?" + url.Values{"output_format": {req.OutputFormat}}.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.APIKey)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, errorMessage(body))
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) > maxAudioBody {
		return nil, fmt.Errorf("audio exceeds %d bytes", maxAudioBody)
	}
	return io.NopCloser(bytes.NewReader(audio)), nil
}

// errorMessage 提取 {"detail":{"message":...}} 或 {"detail":"..."}，否则返回原文
func errorMessage(body []byte) string {
	var withObj struct {
		Detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &withObj); err == nil && withObj.Detail.Message != "" {
		if withObj.Detail.Status != "" {
			return withObj.Detail.Status + ": " + withObj.Detail.Message
		}
		return withObj.Detail.Message
	}
	var withStr struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &withStr); err == nil && withStr.Detail != "" {
		return withStr.Detail
	}
	return strings.TrimSpace(string(body))
}
