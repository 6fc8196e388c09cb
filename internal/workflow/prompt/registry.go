// Package prompt 管理各生成任务的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	wfmodel "novel-assist-api/internal/workflow/model"
	"novel-assist-api/pkg/errors"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// 字段名常量，HTTP 层与模板共用
const (
	FieldRewriteType  = "rewrite_type"
	FieldSelectedText = "selected_text"
	FieldCustomPrompt = "custom_prompt"
)

// OperationRewrite rewrite 操作，按 rewrite_type 选择风格模板
const OperationRewrite = "rewrite"

type taskSpec struct {
	id       wfmodel.TaskID
	files    []string
	required []string
	optional []string
	output   wfmodel.OutputSchema
}

var rewriteOutput = wfmodel.OutputSchema{{Name: "newText", Kind: wfmodel.KindString}}

// rewriteRequired 所有 rewrite 风格共用的必填字段（声明顺序）
var rewriteRequired = []string{FieldSelectedText, FieldRewriteType}

func rewriteSpec(id wfmodel.TaskID, optional ...string) taskSpec {
	return taskSpec{
		id:       id,
		files:    []string{"templates/rewrite_system.txt", "templates/" + string(id) + ".txt"},
		required: append([]string(nil), rewriteRequired...),
		optional: optional,
		output:   rewriteOutput,
	}
}

var builtinTasks = []taskSpec{
	{
		id:       wfmodel.TaskBrainstorming,
		files:    []string{"templates/brainstorming.txt"},
		required: []string{"category", "list_of"},
		optional: []string{"context", "examples"},
		output:   wfmodel.OutputSchema{{Name: "ideas", Kind: wfmodel.KindStringList}},
	},
	{
		id:    wfmodel.TaskChapter,
		files: []string{"templates/chapter.txt"},
		required: []string{
			"plot_point", "previous_chapters", "character_data",
			"worldbuilding_data", "user_genre", "user_style",
		},
		output: wfmodel.OutputSchema{{Name: "chapter_text", Kind: wfmodel.KindString}},
	},
	{
		id:       wfmodel.TaskCharacter,
		files:    []string{"templates/character.txt"},
		required: []string{"user_character_description", "user_genre"},
		output: wfmodel.OutputSchema{
			{Name: "name", Kind: wfmodel.KindString},
			{Name: "personality_traits", Kind: wfmodel.KindStringList},
			{Name: "backstory", Kind: wfmodel.KindString},
		},
	},
	{
		id:       wfmodel.TaskOutline,
		files:    []string{"templates/outline.txt"},
		required: []string{"user_premise", "user_genre"},
		output:   wfmodel.OutputSchema{{Name: "outline", Kind: wfmodel.KindStringList}},
	},
	{
		id:    wfmodel.TaskQuickEdit,
		files: []string{"templates/quick_edit.txt"},
		required: []string{
			"user_request", "document_text", "character_data",
			"worldbuilding_data", "user_genre",
		},
		output: wfmodel.OutputSchema{{Name: "edited_text", Kind: wfmodel.KindString}},
	},
	rewriteSpec(wfmodel.TaskRewriteShorter),
	rewriteSpec(wfmodel.TaskRewriteLonger),
	rewriteSpec(wfmodel.TaskRewriteMoreIntense),
	rewriteSpec(wfmodel.TaskRewriteMoreDescriptive),
	rewriteSpec(wfmodel.TaskRewriteCustom, FieldCustomPrompt),
}

// operationAliases 兼容旧路由中的驼峰/连字符写法
var operationAliases = map[string]wfmodel.TaskID{
	"quick-edit":    wfmodel.TaskQuickEdit,
	"quickedit":     wfmodel.TaskQuickEdit,
	"brainstorming": wfmodel.TaskBrainstorming,
	"brainstorm":    wfmodel.TaskBrainstorming,
}

// Registry 任务定义注册表，构建后只读，可并发使用
type Registry struct {
	defs      map[wfmodel.TaskID]*wfmodel.TaskDefinition
	templates map[wfmodel.TaskID]einoprompt.ChatTemplate
}

// NewRegistry 从内嵌模板构建注册表，并校验声明字段与模板占位符一致
func NewRegistry() (*Registry, error) {
	r := &Registry{
		defs:      make(map[wfmodel.TaskID]*wfmodel.TaskDefinition, len(builtinTasks)),
		templates: make(map[wfmodel.TaskID]einoprompt.ChatTemplate, len(builtinTasks)),
	}
	for _, spec := range builtinTasks {
		parts := make([]string, 0, len(spec.files))
		for _, f := range spec.files {
			text, err := readEmbeddedText(f)
			if err != nil {
				return nil, err
			}
			parts = append(parts, text)
		}
		def := &wfmodel.TaskDefinition{
			ID:       spec.id,
			Required: spec.required,
			Optional: spec.optional,
			Template: strings.Join(parts, "\n\n"),
			Output:   spec.output,
		}
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
		r.defs[def.ID] = def
		r.templates[def.ID] = einoprompt.FromMessages(schema.FString, schema.UserMessage(def.Template))
	}
	return r, nil
}

// MustNewRegistry 构建失败时 panic（内嵌模板错误属于编译期缺陷）
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(fmt.Sprintf("failed to build prompt registry: %v", err))
	}
	return r
}

// Lookup 返回任务定义的副本
func (r *Registry) Lookup(id wfmodel.TaskID) (*wfmodel.TaskDefinition, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, errors.UnknownTask(string(id))
	}
	return def.Clone(), nil
}

// ChatTemplate 返回任务的 Eino 模板
func (r *Registry) ChatTemplate(id wfmodel.TaskID) (einoprompt.ChatTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, errors.UnknownTask(string(id))
	}
	return tpl, nil
}

// Tasks 返回已注册的任务 ID（按字典序）
func (r *Registry) Tasks() []wfmodel.TaskID {
	ids := make([]wfmodel.TaskID, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve 将操作名映射到任务 ID。
// rewrite 操作按 rewrite_type 选择风格模板；缺字段时按声明顺序报告第一个。
// 直接调用风格任务（如 rewrite_shorter）时，rewrite_type 若给出须与之一致。
func (r *Registry) Resolve(operation string, fields map[string]string) (wfmodel.TaskID, error) {
	op := strings.ToLower(strings.TrimSpace(operation))
	if op == OperationRewrite {
		for _, name := range rewriteRequired {
			if strings.TrimSpace(fields[name]) == "" {
				return "", errors.MissingField(name)
			}
		}
		style := strings.TrimSpace(fields[FieldRewriteType])
		id := wfmodel.TaskID(wfmodel.RewriteTaskPrefix + NormalizeStyle(style))
		if _, ok := r.defs[id]; !ok {
			return "", errors.UnknownTask(style)
		}
		return id, nil
	}
	if id, ok := operationAliases[op]; ok {
		return id, nil
	}
	id := wfmodel.TaskID(strings.ReplaceAll(op, "-", "_"))
	if _, ok := r.defs[id]; !ok {
		return "", errors.UnknownTask(operation)
	}
	if strings.HasPrefix(string(id), wfmodel.RewriteTaskPrefix) {
		style := strings.TrimSpace(fields[FieldRewriteType])
		if style != "" && wfmodel.RewriteTaskPrefix+NormalizeStyle(style) != string(id) {
			return "", errors.StyleMismatch(string(id), style)
		}
	}
	return id, nil
}

// NormalizeStyle 统一 rewrite 风格写法：小写，空格与连字符转下划线
func NormalizeStyle(style string) string {
	s := strings.ToLower(strings.TrimSpace(style))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func validateDefinition(def *wfmodel.TaskDefinition) error {
	if len(def.Output) == 0 {
		return fmt.Errorf("task %s: empty output schema", def.ID)
	}
	names, err := Placeholders(def.Template)
	if err != nil {
		return fmt.Errorf("task %s: %w", def.ID, err)
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	declared := make(map[string]bool)
	for _, f := range def.Fields() {
		if declared[f] {
			return fmt.Errorf("task %s: field %q declared twice", def.ID, f)
		}
		declared[f] = true
		if !present[f] {
			return fmt.Errorf("task %s: field %q has no placeholder", def.ID, f)
		}
	}
	for _, n := range names {
		if !declared[n] {
			return fmt.Errorf("task %s: placeholder %q is not declared", def.ID, n)
		}
	}
	return nil
}

// Placeholders 解析 FString 模板中的占位符（{{ 与 }} 为字面量）
func Placeholders(tpl string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for i := 0; i < len(tpl); i++ {
		switch tpl[i] {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := tpl[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{ \n\t") {
				return nil, fmt.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		}
	}
	return out, nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
