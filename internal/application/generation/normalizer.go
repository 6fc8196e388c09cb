// Package generation 将操作请求规范化为提示词并调用模型生成结构化结果
package generation

import (
	"context"
	"fmt"
	"strings"

	wfmodel "novel-assist-api/internal/workflow/model"
	workflowprompt "novel-assist-api/internal/workflow/prompt"
	"novel-assist-api/pkg/errors"
)

// Normalizer 校验请求字段并渲染任务模板
type Normalizer struct {
	registry *workflowprompt.Registry
}

func NewNormalizer(registry *workflowprompt.Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Normalize 按任务定义渲染提示词。
// 必填字段缺失或仅含空白时返回 MissingField（按声明顺序报告第一个）；
// 可选字段缺失时替换为空串；未声明的字段被忽略。值按原文替换，不做裁剪或转义。
func (n *Normalizer) Normalize(ctx context.Context, id wfmodel.TaskID, fields map[string]string) (string, error) {
	def, err := n.registry.Lookup(id)
	if err != nil {
		return "", err
	}

	vars := make(map[string]any, len(def.Required)+len(def.Optional))
	for _, name := range def.Required {
		v, ok := fields[name]
		if !ok || strings.TrimSpace(v) == "" {
			return "", errors.MissingField(name)
		}
		vars[name] = v
	}
	for _, name := range def.Optional {
		vars[name] = fields[name]
	}

	tpl, err := n.registry.ChatTemplate(id)
	if err != nil {
		return "", err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}
	if len(msgs) != 1 {
		return "", fmt.Errorf("render template %s: expected 1 message, got %d", id, len(msgs))
	}
	return msgs[0].Content, nil
}
