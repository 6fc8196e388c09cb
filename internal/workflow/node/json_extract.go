package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整的 JSON 对象。
// 模型常在 JSON 前后夹杂 ```json 代码块标记或说明文字。
// 找不到完整对象时返回去除空白后的原文，由调用方解析报错。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end, ok := scanObject(raw[start:]); ok {
			candidate := raw[start : start+end]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return raw
}

// scanObject 按括号配对找到以 s[0]=='{' 开始的对象结尾（忽略字符串内的括号）
func scanObject(s string) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
