//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"novel-assist-api/internal/application/generation"
	"novel-assist-api/internal/application/media"
	"novel-assist-api/internal/config"
	"novel-assist-api/internal/infrastructure/audio"
	"novel-assist-api/internal/infrastructure/imagegen"
	"novel-assist-api/internal/infrastructure/llm"
	"novel-assist-api/internal/infrastructure/persistence/redis"
	"novel-assist-api/internal/infrastructure/speech"
	"novel-assist-api/internal/interfaces/http/handler"
	"novel-assist-api/internal/interfaces/http/router"
	wfchain "novel-assist-api/internal/workflow/chain"
	workflowport "novel-assist-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RedisSet,
		GenerationSet,
		MediaSet,
		RouterSet,
	)
	return nil, nil, nil
}

// RedisSet Redis 提供者集合（未启用时为 nil）
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewRateLimiter,
)

// GenerationSet 文本生成提供者集合
var GenerationSet = wire.NewSet(
	ProvideRegistry,
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wfchain.NewGenerationChain,
	wire.Bind(new(generation.GenerationRunner), new(*wfchain.GenerationChain)),
	generation.NewNormalizer,
	generation.NewInvoker,
	generation.NewService,
)

// MediaSet 图片与语音提供者集合
var MediaSet = wire.NewSet(
	imagegen.NewClient,
	wire.Bind(new(media.ImageAPI), new(*imagegen.Client)),
	speech.NewClient,
	wire.Bind(new(media.SpeechAPI), new(*speech.Client)),
	audio.NewPlayer,
	ProvideImageSettings,
	ProvideSpeechSettings,
	media.NewImageInvoker,
	media.NewSpeechInvoker,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideErrorMode,
	ProvideHealthHandler,
	ProvideGenerationHandler,
	ProvideMediaHandler,
	ProvideTaskHandler,
	handler.NewDispatcher,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
