package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/chapter/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"chapter": "x"}) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRateLimit(t *testing.T) {
	cfg := RateLimitConfig{Enabled: true, RequestsPerSecond: 1, KeyPrefix: "novel_assist:ratelimit"}

	t.Run("放行", func(t *testing.T) {
		limiter := &stubLimiter{allow: true}
		w := httptest.NewRecorder()
		newEngine(RateLimit(cfg, limiter, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chapter/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, limiter.keys, 1)
		assert.True(t, strings.HasPrefix(limiter.keys[0], "novel_assist:ratelimit:"))
		assert.True(t, strings.HasSuffix(limiter.keys[0], ":/chapter/"))
	})

	t.Run("拒绝", func(t *testing.T) {
		w := httptest.NewRecorder()
		newEngine(RateLimit(cfg, &stubLimiter{allow: false}, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chapter/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("故障放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		newEngine(RateLimit(cfg, &stubLimiter{err: stderrors.New("redis down")}, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chapter/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("未配置限流器", func(t *testing.T) {
		w := httptest.NewRecorder()
		newEngine(RateLimit(cfg, nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chapter/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodPost, "/chapter/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/chapter/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	got := w.Header().Get(RequestIDHeader)
	assert.NotEqual(t, "bad id\nwith newline", got)
	assert.Len(t, got, 36)
}

func TestRecovery(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(Recovery()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"internal server error"`)
}

func TestAudit_PassesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(Audit(AuditConfig{Enabled: true, SkipPaths: DefaultAuditSkipPaths})).
		ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chapter/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
