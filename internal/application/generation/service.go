package generation

import (
	"context"

	wfmodel "novel-assist-api/internal/workflow/model"
	workflowprompt "novel-assist-api/internal/workflow/prompt"
	"novel-assist-api/pkg/logger"
)

// Service 面向接口层的文本生成入口：解析操作 -> 规范化 -> 调用
type Service struct {
	registry   *workflowprompt.Registry
	normalizer *Normalizer
	invoker    *Invoker
}

func NewService(registry *workflowprompt.Registry, normalizer *Normalizer, invoker *Invoker) *Service {
	return &Service{
		registry:   registry,
		normalizer: normalizer,
		invoker:    invoker,
	}
}

// Generate 执行一次生成操作
func (s *Service) Generate(ctx context.Context, operation string, fields map[string]string) (*wfmodel.GenerationOutput, error) {
	id, err := s.registry.Resolve(operation, fields)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.TaskKey, string(id))

	def, err := s.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	prompt, err := s.normalizer.Normalize(ctx, id, fields)
	if err != nil {
		logger.Warn(ctx, "generation request rejected", "error", err.Error())
		return nil, err
	}
	return s.invoker.Invoke(ctx, def, prompt)
}

// Tasks 返回可用任务列表
func (s *Service) Tasks() []wfmodel.TaskID {
	return s.registry.Tasks()
}
