package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-assist-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "gemini",
			Providers: map[string]config.ProviderConfig{
				"gemini":   {APIKey: "k1", BaseURL: "https://example.invalid/v1", Model: "gemini-test", Temperature: 1, Timeout: time.Second},
				"together": {APIKey: "k2", BaseURL: "https://example.invalid/v1", Model: "gemma-test", Temperature: 0.7},
			},
			TaskProviders: map[string]string{
				"brainstorming": "together",
				"rewrite":       "together",
			},
			ResponseFormat: "json_object",
		},
	}
}

func TestEinoFactory_Route(t *testing.T) {
	f := NewEinoFactory(testConfig())

	r := f.Route("brainstorming")
	assert.Equal(t, "together", r.Provider)
	assert.Equal(t, "gemma-test", r.Model)
	assert.InDelta(t, 0.7, r.Temperature, 1e-9)
	assert.Equal(t, "json_object", r.ResponseFormat)

	assert.Equal(t, "together", f.Route("rewrite_more_intense").Provider, "rewrite 风格任务应继承 rewrite 的配置")
	assert.Equal(t, "gemini", f.Route("chapter").Provider)
	assert.Equal(t, "gemini", f.Route("quick_edit").Provider)
}

func TestEinoFactory_GetCachesModels(t *testing.T) {
	f := NewEinoFactory(testConfig())
	ctx := context.Background()

	m1, err := f.Get(ctx, "")
	require.NoError(t, err)
	m2, err := f.Get(ctx, "gemini")
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	_, err = f.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestNewChatModelConfig_SkipsZeroValues(t *testing.T) {
	cfg := newChatModelConfig(config.ProviderConfig{Model: "m"})
	assert.Nil(t, cfg.MaxTokens)
	assert.Nil(t, cfg.Temperature)

	cfg = newChatModelConfig(config.ProviderConfig{Model: "m", MaxTokens: 512, Temperature: 1})
	require.NotNil(t, cfg.MaxTokens)
	assert.Equal(t, 512, *cfg.MaxTokens)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(1), *cfg.Temperature)
}
