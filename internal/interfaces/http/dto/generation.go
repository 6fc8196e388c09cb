package dto

import (
	"encoding/json"
	"fmt"
)

// GenerationRequest 文本生成请求体：字段名 -> 值。
// 字符串按原文使用；null 视为缺省；其它 JSON 值以紧凑 JSON 文本传入模板。
type GenerationRequest map[string]any

// Fields 转为模板字段
func (r GenerationRequest) Fields() (map[string]string, error) {
	fields := make(map[string]string, len(r))
	for k, v := range r {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			fields[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			fields[k] = string(b)
		}
	}
	return fields, nil
}

// StoryRequest 文本转语音请求
type StoryRequest struct {
	Story string `json:"story"`
}

// ImageRequest 文生图请求
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// TaskInfo 任务说明
type TaskInfo struct {
	ID       string   `json:"id"`
	Required []string `json:"required"`
	Optional []string `json:"optional,omitempty"`
	Output   []string `json:"output"`
}
