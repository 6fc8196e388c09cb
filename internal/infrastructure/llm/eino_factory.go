// Package llm 提供 LLM 客户端工厂
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"novel-assist-api/internal/config"
	workflowport "novel-assist-api/internal/workflow/port"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

var _ workflowport.ChatModelFactory = (*EinoFactory)(nil)

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Route 按任务选择 provider：先查 task_providers，再回落到 default_provider。
// rewrite 的各风格任务可统一配置为 rewrite。
func (f *EinoFactory) Route(task string) workflowport.ProviderRoute {
	name := f.config.DefaultProvider
	if p, ok := f.config.TaskProviders[task]; ok && strings.TrimSpace(p) != "" {
		name = p
	} else if i := strings.IndexByte(task, '_'); i > 0 {
		if p, ok := f.config.TaskProviders[task[:i]]; ok && strings.TrimSpace(p) != "" {
			name = p
		}
	}

	route := workflowport.ProviderRoute{
		Provider:       name,
		ResponseFormat: f.config.ResponseFormat,
	}
	if pc, ok := f.config.Providers[name]; ok {
		route.Model = pc.Model
		route.Temperature = pc.Temperature
	}
	return route
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := openai.NewChatModel(ctx, newChatModelConfig(providerCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// newChatModelConfig 零值参数不下发，交给服务端默认
func newChatModelConfig(pc config.ProviderConfig) *openai.ChatModelConfig {
	cfg := &openai.ChatModelConfig{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
		Timeout: pc.Timeout,
	}
	if pc.MaxTokens > 0 {
		cfg.MaxTokens = ptr(pc.MaxTokens)
	}
	if pc.Temperature > 0 {
		cfg.Temperature = ptr(float32(pc.Temperature))
	}
	return cfg
}

func ptr[T any](v T) *T {
	return &v
}
