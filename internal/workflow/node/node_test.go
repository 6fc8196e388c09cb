package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "novel-assist-api/internal/workflow/model"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "纯 JSON", in: `{"a":"b"}`, want: `{"a":"b"}`},
		{name: "代码块", in: "```json\n{\"a\": \"b\"}\n```", want: `{"a": "b"}`},
		{name: "前后夹杂文字", in: "Sure! Here it is: {\"a\":1} Hope it helps {x}", want: `{"a":1}`},
		{name: "字符串中含括号", in: `{"a":"{not a brace}"}`, want: `{"a":"{not a brace}"}`},
		{name: "跳过无效片段", in: `{oops} {"a":1}`, want: `{"a":1}`},
		{name: "无对象", in: "  no json here ", want: "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestParseReply(t *testing.T) {
	schema := wfmodel.OutputSchema{
		{Name: "name", Kind: wfmodel.KindString},
		{Name: "personality_traits", Kind: wfmodel.KindStringList},
	}

	fields, raw, err := ParseReply("```json\n{\"name\":\"Mara\",\"personality_traits\":[\"wry\",\"loyal\"],\"extra\":true}\n```", schema)
	require.NoError(t, err)
	assert.Equal(t, "Mara", fields["name"])
	assert.Equal(t, []string{"wry", "loyal"}, fields["personality_traits"])
	assert.NotContains(t, fields, "extra", "未声明字段应被丢弃")
	assert.Contains(t, raw, `"Mara"`)

	bad := []struct {
		name string
		in   string
	}{
		{name: "非 JSON", in: "I cannot help with that"},
		{name: "缺少字段", in: `{"name":"Mara"}`},
		{name: "类型错误", in: `{"name":"Mara","personality_traits":"wry"}`},
		{name: "空字符串", in: `{"name":"  ","personality_traits":["wry"]}`},
		{name: "空列表", in: `{"name":"Mara","personality_traits":[]}`},
		{name: "null 值", in: `{"name":null,"personality_traits":["wry"]}`},
		{name: "空回复", in: "   "},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseReply(tt.in, schema)
			assert.Error(t, err)
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", Preview("a\n b\t c", 10))
	assert.Equal(t, "你好...", Preview("你好世界", 2))
}
