package generation

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfchain "novel-assist-api/internal/workflow/chain"
	wfmodel "novel-assist-api/internal/workflow/model"
	workflowport "novel-assist-api/internal/workflow/port"
	workflowprompt "novel-assist-api/internal/workflow/prompt"
	"novel-assist-api/pkg/errors"
)

// stubChatModel 返回固定回复并记录收到的消息
type stubChatModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastMsg []*schema.Message
}

func (m *stubChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsg = input
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.reply,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 34},
		},
	}, nil
}

func (m *stubChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, stderrors.New("stream not supported")
}

type stubFactory struct {
	model    *stubChatModel
	getErr   error
	provider string
}

func (f *stubFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.provider = name
	return f.model, nil
}

func (f *stubFactory) Route(task string) workflowport.ProviderRoute {
	return workflowport.ProviderRoute{Provider: "stub-" + task, Model: "stub-model", Temperature: 1}
}

func fullFields(def *wfmodel.TaskDefinition) map[string]string {
	fields := make(map[string]string)
	for _, name := range def.Fields() {
		fields[name] = "value of " + name
	}
	if _, ok := fields[workflowprompt.FieldRewriteType]; ok {
		fields[workflowprompt.FieldRewriteType] = string(def.ID)[len(wfmodel.RewriteTaskPrefix):]
	}
	return fields
}

func newTestService(m *stubChatModel) (*Service, *stubFactory) {
	registry := workflowprompt.MustNewRegistry()
	factory := &stubFactory{model: m}
	svc := NewService(registry, NewNormalizer(registry), NewInvoker(wfchain.NewGenerationChain(factory)))
	return svc, factory
}

func TestNormalizer_AllRequiredPresent(t *testing.T) {
	registry := workflowprompt.MustNewRegistry()
	n := NewNormalizer(registry)

	for _, id := range registry.Tasks() {
		t.Run(string(id), func(t *testing.T) {
			def, err := registry.Lookup(id)
			require.NoError(t, err)

			fields := fullFields(def)
			rendered, err := n.Normalize(context.Background(), id, fields)
			require.NoError(t, err)
			for _, name := range def.Required {
				assert.Contains(t, rendered, fields[name], "渲染结果应包含字段 %s 的值", name)
			}
		})
	}
}

func TestNormalizer_MissingEachRequiredField(t *testing.T) {
	registry := workflowprompt.MustNewRegistry()
	n := NewNormalizer(registry)

	for _, id := range registry.Tasks() {
		def, err := registry.Lookup(id)
		require.NoError(t, err)

		for _, missing := range def.Required {
			for _, variant := range []string{"absent", "blank"} {
				t.Run(string(id)+"/"+missing+"/"+variant, func(t *testing.T) {
					fields := fullFields(def)
					if variant == "absent" {
						delete(fields, missing)
					} else {
						fields[missing] = " \t\n"
					}

					_, err := n.Normalize(context.Background(), id, fields)
					require.Error(t, err)
					appErr := errors.AsAppError(err)
					assert.Equal(t, errors.CodeMissingField, appErr.Code)
					assert.Equal(t, missing, appErr.Detail)
				})
			}
		}
	}
}

func TestNormalizer_OptionalDefaultsAndLiteralSubstitution(t *testing.T) {
	registry := workflowprompt.MustNewRegistry()
	n := NewNormalizer(registry)

	rendered, err := n.Normalize(context.Background(), wfmodel.TaskBrainstorming, map[string]string{
		"category":   "Names",
		"list_of":    `  names with "quotes" and {braces}  `,
		"undeclared": "should be ignored",
	})
	require.NoError(t, err)
	assert.Contains(t, rendered, `  names with "quotes" and {braces}  `)
	assert.Contains(t, rendered, "**Context (optional):**   (e.g.")
	assert.NotContains(t, rendered, "should be ignored")
}

func TestNormalizer_DistinctInputsDistinctPrompts(t *testing.T) {
	registry := workflowprompt.MustNewRegistry()
	n := NewNormalizer(registry)
	ctx := context.Background()

	for _, id := range registry.Tasks() {
		def, err := registry.Lookup(id)
		require.NoError(t, err)

		base := fullFields(def)
		baseline, err := n.Normalize(ctx, id, base)
		require.NoError(t, err)

		for _, name := range def.Fields() {
			if name == workflowprompt.FieldRewriteType {
				continue
			}
			changed := fullFields(def)
			changed[name] = base[name] + " (changed)"
			got, err := n.Normalize(ctx, id, changed)
			require.NoError(t, err)
			assert.NotEqual(t, baseline, got, "%s: 修改 %s 后提示词应不同", id, name)
		}
	}
}

func TestService_GenerateSuccess(t *testing.T) {
	m := &stubChatModel{reply: "```json\n{\"name\":\"Mara\",\"personality_traits\":[\"wry\",\"loyal\",\"restless\"],\"backstory\":\"Raised on a smuggler's barge.\"}\n```"}
	svc, factory := newTestService(m)

	out, err := svc.Generate(context.Background(), "character", map[string]string{
		"user_character_description": "a retired smuggler",
		"user_genre":                 "Fantasy",
	})
	require.NoError(t, err)

	assert.Equal(t, wfmodel.TaskCharacter, out.Task)
	assert.Equal(t, "Mara", out.Fields["name"])
	assert.Equal(t, []string{"wry", "loyal", "restless"}, out.Fields["personality_traits"])
	assert.Equal(t, "stub-character", out.Meta.Provider)
	assert.Equal(t, 12, out.Meta.PromptTokens)
	assert.Equal(t, 34, out.Meta.CompletionTokens)
	assert.Equal(t, "stub-character", factory.provider)

	require.Len(t, m.lastMsg, 1, "提示词应作为唯一消息发送")
	assert.Equal(t, schema.User, m.lastMsg[0].Role)
	assert.Contains(t, m.lastMsg[0].Content, "CHARACTER DESCRIPTION: a retired smuggler")
}

func TestService_RewriteSelectsStyleTemplate(t *testing.T) {
	m := &stubChatModel{reply: `{"newText":"Shorter."}`}
	svc, _ := newTestService(m)

	out, err := svc.Generate(context.Background(), "rewrite", map[string]string{
		"selected_text": "This is a rather long and winding sentence.",
		"rewrite_type":  "shorter",
	})
	require.NoError(t, err)
	assert.Equal(t, wfmodel.TaskRewriteShorter, out.Task)
	assert.Equal(t, "Shorter.", out.Fields["newText"])
	assert.Contains(t, m.lastMsg[0].Content, "significantly more concise")

	_, err = svc.Generate(context.Background(), "rewrite", map[string]string{
		"selected_text": "Text",
		"rewrite_type":  "custom",
		"custom_prompt": "Make it rhyme",
	})
	require.NoError(t, err)
	assert.Contains(t, m.lastMsg[0].Content, "USER INSTRUCTIONS:\nMake it rhyme")
}

func TestService_MalformedReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "非 JSON", reply: "Once upon a time..."},
		{name: "缺少声明字段", reply: `{"ideas_list":["a"]}`},
		{name: "类型不符", reply: `{"ideas":"a, b, c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&stubChatModel{reply: tt.reply})
			_, err := svc.Generate(context.Background(), "brainstorming", map[string]string{
				"category": "Names",
				"list_of":  "tavern names",
			})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeMalformedReply), "应为 MalformedReply，实际: %v", err)
		})
	}
}

func TestService_UpstreamFailureKeepsRawMessage(t *testing.T) {
	m := &stubChatModel{err: stderrors.New("429 Too Many Requests: quota exceeded")}
	svc, _ := newTestService(m)

	_, err := svc.Generate(context.Background(), "outline", map[string]string{
		"user_premise": "A heist on the moon",
		"user_genre":   "Sci-Fi",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUpstreamFailure))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, m.calls, "不应自动重试")
}

func TestService_MissingFieldSkipsModel(t *testing.T) {
	m := &stubChatModel{reply: `{"outline":["a"]}`}
	svc, _ := newTestService(m)

	_, err := svc.Generate(context.Background(), "outline", map[string]string{"user_genre": "Sci-Fi"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeMissingField))
	assert.Equal(t, 0, m.calls)
}

func TestService_UnknownOperation(t *testing.T) {
	m := &stubChatModel{}
	svc, _ := newTestService(m)

	_, err := svc.Generate(context.Background(), "sonnet", map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnknownTask))
	assert.Equal(t, 0, m.calls)
}
