package middleware

import (
	"context"
	"net/http"
	"time"

	"novel-assist-api/internal/interfaces/http/dto"
	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"
	"novel-assist-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	KeyPrefix         string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc 由前缀、客户端标识与路径构建限流 Key
type KeyFunc func(prefix, client, path string) string

func defaultKey(prefix, client, path string) string {
	return prefix + ":" + client + ":" + path
}

// RateLimit 按客户端 IP + 路径限流；限流器故障时放行
func RateLimit(cfg RateLimitConfig, limiter RateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}
	if keyFn == nil {
		keyFn = defaultKey
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		key := keyFn(cfg.KeyPrefix, c.ClientIP(), path)

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerSecond, time.Second)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, request allowed", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(path).Inc()
			dto.Error(c, http.StatusTooManyRequests, string(errors.CodeTooManyRequests), "rate limit exceeded", "")
			c.Abort()
			return
		}

		c.Next()
	}
}
