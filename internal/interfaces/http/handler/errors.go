package handler

import (
	"net/http"

	"novel-assist-api/internal/interfaces/http/dto"
	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorMode 决定失败时的 HTTP 状态码
type ErrorMode struct {
	// Detailed 为 false 时所有失败统一返回 500
	Detailed bool
}

// respond 输出统一错误信封
func (m ErrorMode) respond(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)

	status := http.StatusInternalServerError
	if m.Detailed && appErr.HTTPStatus != 0 {
		status = appErr.HTTPStatus
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "operation failed", err, "code", string(appErr.Code), "path", c.Request.URL.Path)
	} else {
		logger.Warn(c.Request.Context(), "operation rejected", "code", string(appErr.Code), "error", appErr.Describe())
	}

	var field string
	if appErr.Code == errors.CodeMissingField {
		field = appErr.Detail
	}
	dto.Error(c, status, string(appErr.Code), appErr.Describe(), field)
}
