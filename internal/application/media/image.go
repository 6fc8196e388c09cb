package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"
	"novel-assist-api/pkg/metrics"
	"novel-assist-api/pkg/tracer"
)

const kindImage = "image"

// ImageSettings 固定的生成参数与产物位置
type ImageSettings struct {
	Model      string
	Width      int
	Height     int
	Steps      int
	OutputPath string
	PublicURL  string
}

// ImageResult 图片生成结果
type ImageResult struct {
	DownloadLink string `json:"download_link"`
}

// ImageInvoker 调用文生图服务并把图片写到固定路径。
// 每次调用覆盖同一个文件：并发请求时后写入者胜出，两个请求都返回指向该文件的链接。
// 写入经由同目录临时文件 + rename 完成，文件内容始终是某一次完整的结果。
type ImageInvoker struct {
	api      ImageAPI
	settings ImageSettings
}

func NewImageInvoker(api ImageAPI, settings ImageSettings) *ImageInvoker {
	return &ImageInvoker{api: api, settings: settings}
}

// ArtifactPath 返回当前产物文件的绝对路径
func (i *ImageInvoker) ArtifactPath() (string, error) {
	return filepath.Abs(i.settings.OutputPath)
}

// Generate 生成图片并返回下载链接
func (i *ImageInvoker) Generate(ctx context.Context, prompt string) (*ImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.MissingPrompt()
	}

	ctx, span := tracer.Start(ctx, "media.image.generate", trace.WithAttributes(
		attribute.String("image.model", i.settings.Model),
		attribute.Int("image.width", i.settings.Width),
		attribute.Int("image.height", i.settings.Height),
	))
	defer span.End()

	start := time.Now()
	resp, err := i.api.GenerateImage(ctx, &ImageRequest{
		Prompt: prompt,
		Model:  i.settings.Model,
		Width:  i.settings.Width,
		Height: i.settings.Height,
		Steps:  i.settings.Steps,
		N:      1,
	})
	metrics.MediaCallDuration.WithLabelValues(kindImage).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MediaCallTotal.WithLabelValues(kindImage, "upstream_error").Inc()
		tracer.Fail(span, err)
		logger.Error(ctx, "image generation failed", err)
		return nil, errors.UpstreamFailure(err)
	}

	data, err := decodeImage(resp)
	if err != nil {
		metrics.MediaCallTotal.WithLabelValues(kindImage, "malformed").Inc()
		tracer.Fail(span, err)
		return nil, errors.MalformedReply(err)
	}

	path, err := i.ArtifactPath()
	if err != nil {
		return nil, fmt.Errorf("resolve image path: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		metrics.MediaCallTotal.WithLabelValues(kindImage, "write_error").Inc()
		tracer.Fail(span, err)
		return nil, fmt.Errorf("write image artifact: %w", err)
	}

	metrics.MediaCallTotal.WithLabelValues(kindImage, "success").Inc()
	metrics.ImageArtifactBytes.Observe(float64(len(data)))
	logger.Info(ctx, "image generated", "path", path, "bytes", len(data))

	return &ImageResult{DownloadLink: i.downloadLink(path)}, nil
}

func (i *ImageInvoker) downloadLink(absPath string) string {
	if u := strings.TrimSpace(i.settings.PublicURL); u != "" {
		return u
	}
	return "file://" + filepath.ToSlash(absPath)
}

func decodeImage(resp *ImageResponse) ([]byte, error) {
	if resp == nil || strings.TrimSpace(resp.B64JSON) == "" {
		return nil, fmt.Errorf("empty image payload")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(resp.B64JSON))
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return data, nil
}

// writeFileAtomic 先写同目录临时文件再 rename 覆盖目标
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
