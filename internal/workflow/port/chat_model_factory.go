package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
	// Route 返回任务应使用的 provider 及其模型参数
	Route(task string) ProviderRoute
}

// ProviderRoute 任务到 provider 的路由结果
type ProviderRoute struct {
	Provider    string
	Model       string
	Temperature float64
	// ResponseFormat 为空表示仅靠提示词约束输出格式
	ResponseFormat string
}
