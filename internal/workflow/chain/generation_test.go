package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "novel-assist-api/internal/workflow/model"
	workflowport "novel-assist-api/internal/workflow/port"
)

func brainstormingInput() *wfmodel.GenerationInput {
	return &wfmodel.GenerationInput{
		Task: wfmodel.TaskBrainstorming,
		Output: wfmodel.OutputSchema{
			{Name: "ideas", Kind: wfmodel.KindStringList},
			{Name: "note", Kind: wfmodel.KindString},
		},
	}
}

func TestResponseFormat(t *testing.T) {
	in := brainstormingInput()

	tests := []struct {
		name   string
		format string
		want   map[string]any
	}{
		{name: "未配置", format: "", want: nil},
		{name: "未知取值", format: "xml", want: nil},
		{name: "json_object", format: ResponseFormatJSONObject, want: map[string]any{"type": "json_object"}},
		{name: "json_object 带空白", format: " json_object ", want: map[string]any{"type": "json_object"}},
		{
			name:   "json_schema",
			format: ResponseFormatJSONSchema,
			want: map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "brainstorming_result",
					"strict": false,
					"schema": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"required":             []any{"ideas", "note"},
						"properties": map[string]any{
							"ideas": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"note":  map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseFormat(in, tt.format))
		})
	}
}

func TestBuildModelOptions(t *testing.T) {
	in := brainstormingInput()

	assert.Empty(t, buildModelOptions(in, workflowport.ProviderRoute{}))
	assert.Len(t, buildModelOptions(in, workflowport.ProviderRoute{ResponseFormat: ResponseFormatJSONObject}), 1)
	assert.Len(t, buildModelOptions(in, workflowport.ProviderRoute{ResponseFormat: ResponseFormatJSONSchema}), 1)
}

func TestOutputSchema_JSONSchemaKeepsDeclaredOrder(t *testing.T) {
	schema := wfmodel.OutputSchema{
		{Name: "title", Kind: wfmodel.KindString},
		{Name: "chapters", Kind: wfmodel.KindStringList},
	}.JSONSchema()

	require.Contains(t, schema, "required")
	assert.Equal(t, []any{"title", "chapters"}, schema["required"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 2)
}
