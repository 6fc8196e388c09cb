package generation

import (
	"context"
	"time"

	wfmodel "novel-assist-api/internal/workflow/model"
	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"
	"novel-assist-api/pkg/metrics"
)

// GenerationRunner 生成链的最小依赖，便于替换
type GenerationRunner interface {
	Invoke(ctx context.Context, in *wfmodel.GenerationInput) (*wfmodel.GenerationOutput, error)
}

// Invoker 将渲染后的提示词交给模型，返回按输出结构校验过的结果。
// 不做自动重试。
type Invoker struct {
	runner GenerationRunner
}

func NewInvoker(runner GenerationRunner) *Invoker {
	return &Invoker{runner: runner}
}

func (i *Invoker) Invoke(ctx context.Context, def *wfmodel.TaskDefinition, renderedPrompt string) (*wfmodel.GenerationOutput, error) {
	start := time.Now()
	task := string(def.ID)

	out, err := i.runner.Invoke(ctx, &wfmodel.GenerationInput{
		Task:   def.ID,
		Prompt: renderedPrompt,
		Output: def.Output,
	})
	metrics.GenerationDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())

	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.UpstreamFailure(err)
		}
		status := "upstream_error"
		if errors.HasCode(err, errors.CodeMalformedReply) {
			status = "malformed"
		}
		metrics.GenerationTotal.WithLabelValues(task, status).Inc()
		logger.Error(ctx, "generation failed", err, "task", task, "status", status)
		return nil, err
	}

	metrics.GenerationTotal.WithLabelValues(task, "success").Inc()
	logger.Info(ctx, "generation completed",
		"task", task,
		"provider", out.Meta.Provider,
		"model", out.Meta.Model,
		"prompt_tokens", out.Meta.PromptTokens,
		"completion_tokens", out.Meta.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
