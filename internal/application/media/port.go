// Package media 封装文生图与文本转语音调用
package media

import (
	"context"
	"io"
)

// ImageRequest 文生图请求参数
type ImageRequest struct {
	Prompt string
	Model  string
	Width  int
	Height int
	Steps  int
	N      int
}

// ImageResponse 文生图返回的 base64 编码图片
type ImageResponse struct {
	B64JSON string
}

// ImageAPI 外部文生图服务
type ImageAPI interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)
}

// SpeechRequest 文本转语音请求参数
type SpeechRequest struct {
	Text         string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// SpeechAPI 外部文本转语音服务，返回的音频流由调用方关闭
type SpeechAPI interface {
	Convert(ctx context.Context, req *SpeechRequest) (io.ReadCloser, error)
}

// Player 本地音频播放，Play 阻塞到播放结束
type Player interface {
	Play(ctx context.Context, audio io.Reader) error
}
