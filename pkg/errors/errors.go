// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 调用方输入错误 (101x)
	CodeMissingField  ErrorCode = "1010"
	CodeMissingPrompt ErrorCode = "1011"
	CodeMissingStory  ErrorCode = "1012"
	CodeUnknownTask   ErrorCode = "1013"

	// 业务错误 (4xxx)
	CodeMalformedReply ErrorCode = "4007"

	// 外部服务错误 (5xxx)
	CodeUpstreamFailure ErrorCode = "5006"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Describe 返回面向调用方的错误描述（不含错误码前缀）
func (e *AppError) Describe() string {
	switch {
	case e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Detail != "" && e.Code != CodeMissingField:
		return e.Message + ": " + e.Detail
	default:
		return e.Message
	}
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeMissingField, CodeMissingPrompt, CodeMissingStory:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnknownTask:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeMalformedReply, CodeUpstreamFailure:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MissingField 必填字段缺失或为空，Detail 为字段名
func MissingField(field string) *AppError {
	return New(CodeMissingField, "missing required field: "+field).WithDetail(field)
}

// MissingPrompt 图片生成缺少 prompt
func MissingPrompt() *AppError {
	return New(CodeMissingPrompt, "No prompt provided")
}

// MissingStory 语音合成缺少 story
func MissingStory() *AppError {
	return New(CodeMissingStory, "No story provided")
}

// UnknownTask 未注册的任务或操作
func UnknownTask(id string) *AppError {
	return New(CodeUnknownTask, "unknown task").WithDetail(id)
}

// StyleMismatch 直接调用的 rewrite 风格任务与 rewrite_type 不一致
func StyleMismatch(task, style string) *AppError {
	return New(CodeInvalidParam, "rewrite_type does not match "+task).WithDetail(style)
}

// MalformedReply 上游返回的结构化数据无法解析或缺少字段
func MalformedReply(err error) *AppError {
	return Wrap(err, CodeMalformedReply, "malformed upstream reply")
}

// UpstreamFailure 上游网络/服务错误，保留原始错误信息
func UpstreamFailure(err error) *AppError {
	return Wrap(err, CodeUpstreamFailure, "upstream failure")
}

// IsAppError 检查是否为 AppError（支持包装链）
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 判断错误链中是否包含指定错误码的 AppError
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
