package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"
	"novel-assist-api/pkg/metrics"
	"novel-assist-api/pkg/tracer"
)

const (
	kindSpeech = "speech"

	// StatusSuccess 语音播放完成
	StatusSuccess = "success"
)

// SpeechSettings 固定的声音、模型与输出格式
type SpeechSettings struct {
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// SpeechResult 语音合成结果
type SpeechResult struct {
	Status string `json:"status"`
}

// SpeechInvoker 整段文本一次性提交合成，音频交给本地播放器。
// 调用阻塞到播放结束。
type SpeechInvoker struct {
	api      SpeechAPI
	player   Player
	settings SpeechSettings
}

func NewSpeechInvoker(api SpeechAPI, player Player, settings SpeechSettings) *SpeechInvoker {
	return &SpeechInvoker{api: api, player: player, settings: settings}
}

// Speak 合成并播放故事文本
func (s *SpeechInvoker) Speak(ctx context.Context, story string) (*SpeechResult, error) {
	if strings.TrimSpace(story) == "" {
		return nil, errors.MissingStory()
	}

	ctx, span := tracer.Start(ctx, "media.speech.speak", trace.WithAttributes(
		attribute.String("speech.voice_id", s.settings.VoiceID),
		attribute.String("speech.model_id", s.settings.ModelID),
		attribute.Int("speech.text_length", len(story)),
	))
	defer span.End()

	start := time.Now()
	audio, err := s.api.Convert(ctx, &SpeechRequest{
		Text:         story,
		VoiceID:      s.settings.VoiceID,
		ModelID:      s.settings.ModelID,
		OutputFormat: s.settings.OutputFormat,
	})
	metrics.MediaCallDuration.WithLabelValues(kindSpeech).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MediaCallTotal.WithLabelValues(kindSpeech, "upstream_error").Inc()
		tracer.Fail(span, err)
		logger.Error(ctx, "speech conversion failed", err)
		return nil, errors.UpstreamFailure(err)
	}
	defer audio.Close()

	if err := s.player.Play(ctx, audio); err != nil {
		metrics.MediaCallTotal.WithLabelValues(kindSpeech, "playback_error").Inc()
		tracer.Fail(span, err)
		logger.Error(ctx, "audio playback failed", err)
		return nil, errors.UpstreamFailure(fmt.Errorf("playback: %w", err))
	}

	metrics.MediaCallTotal.WithLabelValues(kindSpeech, "success").Inc()
	logger.Info(ctx, "story spoken", "chars", len([]rune(story)), "duration_ms", time.Since(start).Milliseconds())
	return &SpeechResult{Status: StatusSuccess}, nil
}
