// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构（用于非生成类接口）
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorResponse 错误信封：所有操作失败时返回同一结构，detail 恒为错误描述
type ErrorResponse struct {
	Code   string `json:"code"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
	// Field 缺失的请求字段名，仅 missing field 错误携带
	Field   string `json:"field,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(200, Response[T]{
		Code:    200,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// Result 直接返回操作结果对象（如 {"ideas": [...]}）
func Result(c *gin.Context, body any) {
	c.JSON(200, body)
}

// Error 返回错误信封
func Error(c *gin.Context, httpCode int, code, message, field string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    code,
		Error:   message,
		Detail:  message,
		Field:   field,
		TraceID: c.GetString("trace_id"),
	})
}
