package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Dispatcher 按操作名把请求分派到语音、图片或文本生成处理器
type Dispatcher struct {
	generation *GenerationHandler
	media      *MediaHandler
}

// NewDispatcher 创建统一分派入口
func NewDispatcher(generation *GenerationHandler, media *MediaHandler) *Dispatcher {
	return &Dispatcher{generation: generation, media: media}
}

// Dispatch 统一操作入口
// @Summary 统一操作入口
// @Description tts / imageGen 走媒体通道，其余操作名交给模板注册表解析
// @Tags Generation
// @Accept json
// @Produce json
// @Param op path string true "操作名"
// @Success 200 {object} map[string]any
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/operations/{op} [post]
func (d *Dispatcher) Dispatch(c *gin.Context) {
	op := strings.TrimSpace(c.Param("op"))
	switch strings.ToLower(op) {
	case "tts", "text-to-speech":
		d.media.TTS(c)
	case "imagegen", "image":
		d.media.ImageGen(c)
	default:
		d.generation.run(c, op)
	}
}
