package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	einoobs "novel-assist-api/internal/observability/eino"
	wfmodel "novel-assist-api/internal/workflow/model"
	wfnode "novel-assist-api/internal/workflow/node"
	workflowport "novel-assist-api/internal/workflow/port"
	"novel-assist-api/pkg/errors"
	"novel-assist-api/pkg/logger"
)

const (
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// GenerationChain 通用文本生成链：init -> llm -> parse。
// 渲染后的提示词作为唯一的 user 消息发送，回复按任务输出结构校验。
type GenerationChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.GenerationInput, *wfmodel.GenerationOutput]
	chainErr  error
}

func NewGenerationChain(factory workflowport.ChatModelFactory) *GenerationChain {
	return &GenerationChain{factory: factory}
}

// Invoke 执行生成链。
// 返回的错误为 MalformedReply 或 UpstreamFailure。
func (c *GenerationChain) Invoke(ctx context.Context, in *wfmodel.GenerationInput) (*wfmodel.GenerationOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}

	ctx, fail := withFailure(ctx)
	out, err := chain.Invoke(ctx, in)
	if err != nil {
		// 节点内已分类的错误优先，compose 会在外层包装节点信息
		if fail.err != nil {
			return nil, fail.err
		}
		return nil, errors.UpstreamFailure(err)
	}
	return out, nil
}

type generationChainState struct {
	In     *wfmodel.GenerationInput
	Route  workflowport.ProviderRoute
	OutMsg *schema.Message
}

func (c *GenerationChain) getChain() (compose.Runnable[*wfmodel.GenerationInput, *wfmodel.GenerationOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *GenerationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.GenerationInput, *wfmodel.GenerationOutput], error) {
	chain := compose.NewChain[*wfmodel.GenerationInput, *wfmodel.GenerationOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.GenerationInput) (*generationChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if len(in.Output) == 0 {
				return nil, fmt.Errorf("task %s has no output schema", in.Task)
			}
			route := c.factory.Route(string(in.Task))
			if p := strings.TrimSpace(in.Provider); p != "" {
				route.Provider = p
			}
			return &generationChainState{In: in, Route: route}, nil
		}),
		compose.WithNodeName("generation.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *generationChainState) (*generationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = einoobs.WithWorkflowProvider(ctx, string(st.In.Task), st.Route.Provider)

			chatModel, err := c.factory.Get(ctx, st.Route.Provider)
			if err != nil {
				return nil, recordFailure(ctx, errors.UpstreamFailure(err))
			}

			msgs := []*schema.Message{schema.UserMessage(st.In.Prompt)}
			outMsg, err := chatModel.Generate(ctx, msgs, buildModelOptions(st.In, st.Route)...)
			if err != nil {
				return nil, recordFailure(ctx, errors.UpstreamFailure(err))
			}
			if outMsg == nil {
				return nil, recordFailure(ctx, errors.UpstreamFailure(fmt.Errorf("empty llm response")))
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("generation.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *generationChainState) (*wfmodel.GenerationOutput, error) {
			if st == nil || st.In == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			fields, raw, err := wfnode.ParseReply(st.OutMsg.Content, st.In.Output)
			if err != nil {
				logger.Warn(ctx, "llm reply rejected",
					"task", string(st.In.Task),
					"provider", st.Route.Provider,
					"reason", err.Error(),
					"reply_preview", wfnode.Preview(st.OutMsg.Content, 200),
				)
				return nil, recordFailure(ctx, errors.MalformedReply(err))
			}

			meta := wfmodel.LLMUsageMeta{
				Provider:    st.Route.Provider,
				Model:       st.Route.Model,
				Temperature: st.Route.Temperature,
				GeneratedAt: time.Now().UTC(),
			}
			if st.OutMsg.ResponseMeta != nil && st.OutMsg.ResponseMeta.Usage != nil {
				meta.PromptTokens = st.OutMsg.ResponseMeta.Usage.PromptTokens
				meta.CompletionTokens = st.OutMsg.ResponseMeta.Usage.CompletionTokens
			}

			return &wfmodel.GenerationOutput{
				Task:   st.In.Task,
				Fields: fields,
				Raw:    raw,
				Meta:   meta,
			}, nil
		}),
		compose.WithNodeName("generation.parse"),
	)

	return chain.Compile(ctx, compose.WithGraphName("generation_chain"))
}

// buildModelOptions 按配置附加 response_format；不支持时直接失败，不降级重试
func buildModelOptions(in *wfmodel.GenerationInput, route workflowport.ProviderRoute) []model.Option {
	format := responseFormat(in, route.ResponseFormat)
	if format == nil {
		return nil
	}
	return []model.Option{openaiopts.WithExtraFields(map[string]any{"response_format": format})}
}

// responseFormat 生成请求体中的 response_format 字段，未配置或取值未知时返回 nil
func responseFormat(in *wfmodel.GenerationInput, format string) map[string]any {
	switch strings.TrimSpace(format) {
	case ResponseFormatJSONObject:
		return map[string]any{"type": "json_object"}
	case ResponseFormatJSONSchema:
		return map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   string(in.Task) + "_result",
				"strict": false,
				"schema": in.Output.JSONSchema(),
			},
		}
	}
	return nil
}

type failureKey struct{}

type failure struct {
	err error
}

func withFailure(ctx context.Context) (context.Context, *failure) {
	f := &failure{}
	return context.WithValue(ctx, failureKey{}, f), f
}

// recordFailure 保存节点内的分类错误，便于 Invoke 原样返回
func recordFailure(ctx context.Context, err error) error {
	if f, ok := ctx.Value(failureKey{}).(*failure); ok && f.err == nil {
		f.err = err
	}
	return err
}
