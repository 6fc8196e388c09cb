package handler

import (
	"context"
	"net/http"
	"os"

	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/interfaces/http/dto"
	"novel-assist-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Speaker 文本转语音服务
type Speaker interface {
	Speak(ctx context.Context, story string) (*media.SpeechResult, error)
}

// ImageGenerator 文生图服务
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*media.ImageResult, error)
	ArtifactPath() (string, error)
}

// MediaHandler 语音与图片处理器
type MediaHandler struct {
	speech Speaker
	image  ImageGenerator
	errors ErrorMode
}

// NewMediaHandler 创建媒体处理器
func NewMediaHandler(speech Speaker, image ImageGenerator, mode ErrorMode) *MediaHandler {
	return &MediaHandler{speech: speech, image: image, errors: mode}
}

// TTS 文本转语音并在服务端播放
// @Summary 文本转语音
// @Description 合成整段文本并在服务端本地播放，播放结束后返回
// @Tags Media
// @Accept json
// @Produce json
// @Param body body dto.StoryRequest true "待朗读文本"
// @Success 200 {object} media.SpeechResult
// @Failure 500 {object} dto.ErrorResponse
// @Router /tts/ [post]
func (h *MediaHandler) TTS(c *gin.Context) {
	var req dto.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.respond(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}

	res, err := h.speech.Speak(c.Request.Context(), req.Story)
	if err != nil {
		h.errors.respond(c, err)
		return
	}
	dto.Result(c, res)
}

// ImageGen 文生图
// @Summary 生成图片
// @Description 生成一张图片写入固定产物路径，返回下载链接
// @Tags Media
// @Accept json
// @Produce json
// @Param body body dto.ImageRequest true "图片描述"
// @Success 200 {object} media.ImageResult
// @Failure 500 {object} dto.ErrorResponse
// @Router /imageGen/ [post]
func (h *MediaHandler) ImageGen(c *gin.Context) {
	var req dto.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.respond(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}

	res, err := h.image.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		h.errors.respond(c, err)
		return
	}
	dto.Result(c, res)
}

// LatestImage 返回最近一次生成的图片
// @Summary 最新图片
// @Tags Media
// @Produce png
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /imageGen/latest [get]
func (h *MediaHandler) LatestImage(c *gin.Context) {
	path, err := h.image.ArtifactPath()
	if err != nil {
		h.errors.respond(c, errors.Wrap(err, errors.CodeInternalError, "artifact path unavailable"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		dto.Error(c, http.StatusNotFound, string(errors.CodeNotFound), "no image generated yet", "")
		return
	}
	c.File(path)
}
