package wire

import (
	"novel-assist-api/internal/application/generation"
	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
	"novel-assist-api/internal/infrastructure/persistence/redis"
	"novel-assist-api/internal/interfaces/http/handler"
	workflowprompt "novel-assist-api/internal/workflow/prompt"
)

// ProvideRedisClient 提供 Redis 客户端；未启用时返回 nil
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRegistry 提供模板注册表
func ProvideRegistry() (*workflowprompt.Registry, error) {
	return workflowprompt.NewRegistry()
}

// ProvideImageSettings 提供文生图固定参数
func ProvideImageSettings(cfg *config.Config) media.ImageSettings {
	img := cfg.Media.Image
	return media.ImageSettings{
		Model:      img.Model,
		Width:      img.Width,
		Height:     img.Height,
		Steps:      img.Steps,
		OutputPath: img.OutputPath,
		PublicURL:  img.PublicURL,
	}
}

// ProvideSpeechSettings 提供语音合成固定参数
func ProvideSpeechSettings(cfg *config.Config) media.SpeechSettings {
	sp := cfg.Media.Speech
	return media.SpeechSettings{
		VoiceID:      sp.VoiceID,
		ModelID:      sp.ModelID,
		OutputFormat: sp.OutputFormat,
	}
}

// ProvideErrorMode 提供错误响应模式
func ProvideErrorMode(cfg *config.Config) handler.ErrorMode {
	return handler.ErrorMode{Detailed: cfg.Server.HTTP.DetailedErrors}
}

// ProvideHealthHandler Redis 未启用时不参与就绪检查
func ProvideHealthHandler(cfg *config.Config, client *redis.Client) *handler.HealthHandler {
	if client == nil {
		return handler.NewHealthHandler(cfg.App.Version, nil)
	}
	return handler.NewHealthHandler(cfg.App.Version, client)
}

// ProvideGenerationHandler 提供文本生成处理器
func ProvideGenerationHandler(svc *generation.Service, mode handler.ErrorMode) *handler.GenerationHandler {
	return handler.NewGenerationHandler(svc, mode)
}

// ProvideMediaHandler 提供媒体处理器
func ProvideMediaHandler(speech *media.SpeechInvoker, image *media.ImageInvoker, mode handler.ErrorMode) *handler.MediaHandler {
	return handler.NewMediaHandler(speech, image, mode)
}

// ProvideTaskHandler 提供任务目录处理器
func ProvideTaskHandler(registry *workflowprompt.Registry) *handler.TaskHandler {
	return handler.NewTaskHandler(registry, registry)
}
