package node

import (
	"encoding/json"
	"fmt"
	"strings"

	wfmodel "novel-assist-api/internal/workflow/model"
)

// ParseReply 解析模型回复并按输出结构校验。
// 声明字段必须存在、类型正确且非空；未声明的字段被丢弃。
func ParseReply(content string, schema wfmodel.OutputSchema) (map[string]any, string, error) {
	raw := ExtractJSONObject(content)
	if raw == "" {
		return nil, raw, fmt.Errorf("empty reply")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, raw, fmt.Errorf("reply is not a JSON object: %w", err)
	}

	out := make(map[string]any, len(schema))
	for _, f := range schema {
		v, ok := obj[f.Name]
		if !ok {
			return nil, raw, fmt.Errorf("missing field %q", f.Name)
		}
		switch f.Kind {
		case wfmodel.KindStringList:
			var items []string
			if err := json.Unmarshal(v, &items); err != nil {
				return nil, raw, fmt.Errorf("field %q: expected list of strings", f.Name)
			}
			if len(items) == 0 {
				return nil, raw, fmt.Errorf("field %q is empty", f.Name)
			}
			out[f.Name] = items
		default:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, raw, fmt.Errorf("field %q: expected string", f.Name)
			}
			if strings.TrimSpace(s) == "" {
				return nil, raw, fmt.Errorf("field %q is empty", f.Name)
			}
			out[f.Name] = s
		}
	}
	return out, raw, nil
}
