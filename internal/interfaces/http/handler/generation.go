// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"novel-assist-api/internal/interfaces/http/dto"
	wfmodel "novel-assist-api/internal/workflow/model"
	"novel-assist-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Generator 文本生成服务
type Generator interface {
	Generate(ctx context.Context, operation string, fields map[string]string) (*wfmodel.GenerationOutput, error)
}

// GenerationHandler 模板化文本生成处理器
type GenerationHandler struct {
	gen    Generator
	errors ErrorMode
}

// NewGenerationHandler 创建文本生成处理器
func NewGenerationHandler(gen Generator, mode ErrorMode) *GenerationHandler {
	return &GenerationHandler{gen: gen, errors: mode}
}

// Handle 返回指定操作的处理函数
// @Summary 模板化文本生成
// @Description 按操作对应的模板组装提示词并返回结构化结果，如 brainstorming 返回 {"ideas": [...]}
// @Tags Generation
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 500 {object} dto.ErrorResponse
// @Router /brainstorming/ [post]
func (h *GenerationHandler) Handle(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.run(c, operation)
	}
}

func (h *GenerationHandler) run(c *gin.Context, operation string) {
	var req dto.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.respond(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	fields, err := req.Fields()
	if err != nil {
		h.errors.respond(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}

	out, err := h.gen.Generate(c.Request.Context(), operation, fields)
	if err != nil {
		h.errors.respond(c, err)
		return
	}
	dto.Result(c, out.Fields)
}

// TaskLister 列出可用任务
type TaskLister interface {
	Tasks() []wfmodel.TaskID
}

// TaskDescriber 查询任务定义
type TaskDescriber interface {
	Lookup(id wfmodel.TaskID) (*wfmodel.TaskDefinition, error)
}

// TaskHandler 任务目录处理器
type TaskHandler struct {
	tasks TaskLister
	defs  TaskDescriber
}

// NewTaskHandler 创建任务目录处理器
func NewTaskHandler(tasks TaskLister, defs TaskDescriber) *TaskHandler {
	return &TaskHandler{tasks: tasks, defs: defs}
}

// ListTasks 列出模板任务
// @Summary 模板任务列表
// @Tags Generation
// @Produce json
// @Success 200 {object} dto.Response[[]dto.TaskInfo]
// @Router /v1/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	ids := h.tasks.Tasks()
	infos := make([]dto.TaskInfo, 0, len(ids))
	for _, id := range ids {
		def, err := h.defs.Lookup(id)
		if err != nil {
			continue
		}
		infos = append(infos, dto.TaskInfo{
			ID:       string(def.ID),
			Required: def.Required,
			Optional: def.Optional,
			Output:   def.Output.Names(),
		})
	}
	dto.Success(c, infos)
}
