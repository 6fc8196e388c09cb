package model

// TaskID 文本生成任务标识
type TaskID string

const (
	TaskBrainstorming          TaskID = "brainstorming"
	TaskChapter                TaskID = "chapter"
	TaskCharacter              TaskID = "character"
	TaskOutline                TaskID = "outline"
	TaskQuickEdit              TaskID = "quick_edit"
	TaskRewriteShorter         TaskID = "rewrite_shorter"
	TaskRewriteLonger          TaskID = "rewrite_longer"
	TaskRewriteMoreIntense     TaskID = "rewrite_more_intense"
	TaskRewriteMoreDescriptive TaskID = "rewrite_more_descriptive"
	TaskRewriteCustom          TaskID = "rewrite_custom"
)

// RewriteTaskPrefix rewrite 各风格任务的公共前缀
const RewriteTaskPrefix = "rewrite_"

// FieldKind 输出字段类型
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindStringList FieldKind = "string_list"
)

// OutputField 输出 JSON 中的一个顶层字段
type OutputField struct {
	Name string
	Kind FieldKind
}

// OutputSchema 任务声明的输出结构，按声明顺序排列
type OutputSchema []OutputField

// Names 返回字段名列表
func (s OutputSchema) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// JSONSchema 渲染为 JSON Schema，供 response_format=json_schema 使用
func (s OutputSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s))
	required := make([]any, 0, len(s))
	for _, f := range s {
		switch f.Kind {
		case KindStringList:
			props[f.Name] = map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			}
		default:
			props[f.Name] = map[string]any{"type": "string"}
		}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           props,
	}
}

// TaskDefinition 一个生成任务的静态描述：输入字段、模板与输出结构。
// 进程启动时构建，之后只读。
type TaskDefinition struct {
	ID       TaskID
	Required []string
	Optional []string
	Template string
	Output   OutputSchema
}

// Fields 返回全部声明字段（必填在前）
func (d *TaskDefinition) Fields() []string {
	out := make([]string, 0, len(d.Required)+len(d.Optional))
	out = append(out, d.Required...)
	return append(out, d.Optional...)
}

// Clone 深拷贝，避免调用方修改注册表内的定义
func (d *TaskDefinition) Clone() *TaskDefinition {
	if d == nil {
		return nil
	}
	return &TaskDefinition{
		ID:       d.ID,
		Required: append([]string(nil), d.Required...),
		Optional: append([]string(nil), d.Optional...),
		Template: d.Template,
		Output:   append(OutputSchema(nil), d.Output...),
	}
}

// GenerationInput 生成链输入
type GenerationInput struct {
	Task     TaskID
	Prompt   string
	Provider string
	Output   OutputSchema
}

// GenerationOutput 生成链输出，Fields 仅包含声明的输出字段
type GenerationOutput struct {
	Task   TaskID
	Fields map[string]any
	Raw    string
	Meta   LLMUsageMeta
}
