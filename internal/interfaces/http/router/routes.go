package router

import (
	"github.com/gin-gonic/gin"
)

// operationRoutes 独立端点 -> 操作名
var operationRoutes = []struct {
	path      string
	operation string
}{
	{"/brainstorming/", "brainstorming"},
	{"/chapter/", "chapter"},
	{"/character/", "character"},
	{"/outline/", "outline"},
	{"/quickEdit/", "quick_edit"},
	{"/rewrite/", "rewrite"},
}

// RegisterOperationRoutes 注册全部操作端点
func RegisterOperationRoutes(r gin.IRouter, h *Handlers) {
	r.POST("/tts/", h.Media.TTS)
	r.POST("/imageGen/", h.Media.ImageGen)
	r.GET("/imageGen/latest", h.Media.LatestImage)

	for _, route := range operationRoutes {
		r.POST(route.path, h.Generation.Handle(route.operation))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/tasks", h.Tasks.ListTasks)
		v1.POST("/operations/:op", h.Dispatcher.Dispatch)
	}
}
