package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error 客户端错误
type Error struct {
	Code    int
	Message string
	Err     error

	// HTTPStatus HTTP 状态码（仅 ErrCodeHTTPStatus）
	HTTPStatus int
	// RPCCode / RPCMessage / RPCData JSON-RPC 错误码、消息与附加数据（仅 ErrCodeRPCError）
	RPCCode    int
	RPCMessage string
	RPCData    json.RawMessage
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeRPCError        = 1003 // JSON-RPC错误（节点已处理并拒绝）
	ErrCodeNotSupported    = 1004 // 不支持的操作
	ErrCodeHTTPStatus      = 1005 // 非 200 HTTP 状态
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError(err error) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
		Err:     err,
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
		Err:     err,
	}
}

// NewRPCError 创建JSON-RPC错误
func NewRPCError(code int, message string, data json.RawMessage) *Error {
	return &Error{
		Code:       ErrCodeRPCError,
		Message:    fmt.Sprintf("RPC error [%d]: %s", code, message),
		RPCCode:    code,
		RPCMessage: message,
		RPCData:    data,
	}
}

// NewHTTPStatusError 创建 HTTP 状态错误
func NewHTTPStatusError(status int, body string) *Error {
	return &Error{
		Code:       ErrCodeHTTPStatus,
		Message:    fmt.Sprintf("HTTP error: %d, body: %s", status, body),
		HTTPStatus: status,
	}
}

// NewNotSupportedError 创建不支持的操作错误
func NewNotSupportedError(operation string) *Error {
	return &Error{
		Code:    ErrCodeNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}

// IsRPCError 节点是否以 JSON-RPC 错误拒绝了请求
func IsRPCError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeRPCError {
		return e, true
	}
	return nil, false
}

// RPCErrorMessage 返回 JSON-RPC 错误的原始消息（非 RPC 错误返回空字符串）
func RPCErrorMessage(err error) string {
	if e, ok := IsRPCError(err); ok {
		return e.RPCMessage
	}
	return ""
}
