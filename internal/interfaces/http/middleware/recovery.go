package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"novel-assist-api/internal/interfaces/http/dto"
	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery Panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				dto.Error(c, http.StatusInternalServerError, string(errors.CodeInternalError), "internal server error", "")
				c.Abort()
			}
		}()

		c.Next()
	}
}
