package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorClass 错误类别
//
// 类别决定给用户展示的补救方式：
// - validation: 重新输入
// - authority: 重新连接钱包 / 更换钱包
// - network: 可重试
// - protocol_invariant: 中止本次尝试，不可重试
type ErrorClass string

const (
	ClassValidation        ErrorClass = "validation"
	ClassAuthority         ErrorClass = "authority"
	ClassNetwork           ErrorClass = "network"
	ClassProtocolInvariant ErrorClass = "protocol_invariant"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 输入校验
	ErrorCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrorCodeInvalidRecipient ErrorCode = "INVALID_RECIPIENT"
	ErrorCodeInvalidPublicKey ErrorCode = "INVALID_PUBLIC_KEY"
	ErrorCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrorCodeInvalidState     ErrorCode = "INVALID_STATE"

	// 签名方
	ErrorCodeAuthorityNotConnected ErrorCode = "AUTHORITY_NOT_CONNECTED"
	ErrorCodeSigningUnsupported    ErrorCode = "SIGNING_UNSUPPORTED"
	ErrorCodeSigningRejected       ErrorCode = "SIGNING_REJECTED"
	ErrorCodeAuthorityMismatch     ErrorCode = "AUTHORITY_MISMATCH"

	// 网络
	ErrorCodeNetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE"
	ErrorCodeBroadcastRejected  ErrorCode = "BROADCAST_REJECTED"

	// 协议不变量
	ErrorCodeSignatureIntegrityViolation ErrorCode = "SIGNATURE_INTEGRITY_VIOLATION"
)

var codeClasses = map[ErrorCode]ErrorClass{
	ErrorCodeInvalidAmount:               ClassValidation,
	ErrorCodeInvalidRecipient:            ClassValidation,
	ErrorCodeInvalidPublicKey:            ClassValidation,
	ErrorCodeInvalidSignature:            ClassValidation,
	ErrorCodeInvalidState:                ClassValidation,
	ErrorCodeAuthorityNotConnected:       ClassAuthority,
	ErrorCodeSigningUnsupported:          ClassAuthority,
	ErrorCodeSigningRejected:             ClassAuthority,
	ErrorCodeAuthorityMismatch:           ClassAuthority,
	ErrorCodeNetworkUnavailable:          ClassNetwork,
	ErrorCodeBroadcastRejected:           ClassNetwork,
	ErrorCodeSignatureIntegrityViolation: ClassProtocolInvariant,
}

var classMessages = map[ErrorClass]string{
	ClassValidation:        "invalid input, please check and re-enter",
	ClassAuthority:         "wallet not connected or not supported, please reconnect or use another wallet",
	ClassNetwork:           "network request failed, please retry",
	ClassProtocolInvariant: "wallet returned an inconsistent signature, attempt aborted",
}

// Sentinel 错误，用于 errors.Is 判断（按错误码比较）
var (
	ErrInvalidAmount               = &WalletError{Code: ErrorCodeInvalidAmount, Class: ClassValidation}
	ErrInvalidRecipient            = &WalletError{Code: ErrorCodeInvalidRecipient, Class: ClassValidation}
	ErrInvalidPublicKey            = &WalletError{Code: ErrorCodeInvalidPublicKey, Class: ClassValidation}
	ErrInvalidSignature            = &WalletError{Code: ErrorCodeInvalidSignature, Class: ClassValidation}
	ErrInvalidState                = &WalletError{Code: ErrorCodeInvalidState, Class: ClassValidation}
	ErrAuthorityNotConnected       = &WalletError{Code: ErrorCodeAuthorityNotConnected, Class: ClassAuthority}
	ErrSigningUnsupported          = &WalletError{Code: ErrorCodeSigningUnsupported, Class: ClassAuthority}
	ErrSigningRejected             = &WalletError{Code: ErrorCodeSigningRejected, Class: ClassAuthority}
	ErrAuthorityMismatch           = &WalletError{Code: ErrorCodeAuthorityMismatch, Class: ClassAuthority}
	ErrNetworkUnavailable          = &WalletError{Code: ErrorCodeNetworkUnavailable, Class: ClassNetwork}
	ErrBroadcastRejected           = &WalletError{Code: ErrorCodeBroadcastRejected, Class: ClassNetwork}
	ErrSignatureIntegrityViolation = &WalletError{Code: ErrorCodeSignatureIntegrityViolation, Class: ClassProtocolInvariant}
)

// WalletError SDK 统一错误类型
type WalletError struct {
	Code        ErrorCode
	Class       ErrorClass
	UserMessage string
	Detail      string
	Cause       error
	TraceID     string
	Timestamp   string
}

func (e *WalletError) Error() string {
	msg := e.UserMessage
	if msg == "" {
		msg = string(e.Class)
	}
	switch {
	case e.Detail != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, msg, e.Detail, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, msg, e.Detail)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is 按错误码匹配，使 errors.Is(err, ErrInvalidAmount) 可用
func (e *WalletError) Is(target error) bool {
	t, ok := target.(*WalletError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError 创建 WalletError，类别与用户提示由错误码决定
func NewError(code ErrorCode, detail string, cause error) *WalletError {
	class, ok := codeClasses[code]
	if !ok {
		class = ClassNetwork
	}
	return &WalletError{
		Code:        code,
		Class:       class,
		UserMessage: classMessages[class],
		Detail:      detail,
		Cause:       cause,
		TraceID:     uuid.New().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// Errorf 以格式化 detail 创建 WalletError
func Errorf(code ErrorCode, format string, args ...interface{}) *WalletError {
	return NewError(code, fmt.Sprintf(format, args...), nil)
}

// IsWalletError 检查错误链中是否有 WalletError
func IsWalletError(err error) (*WalletError, bool) {
	var we *WalletError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// ClassOf 返回错误类别，非 WalletError 返回空字符串
func ClassOf(err error) ErrorClass {
	if we, ok := IsWalletError(err); ok {
		return we.Class
	}
	return ""
}

// CodeOf 返回错误码，非 WalletError 返回空字符串
func CodeOf(err error) ErrorCode {
	if we, ok := IsWalletError(err); ok {
		return we.Code
	}
	return ""
}

// IsRetryable 仅网络类错误可由调用方重试
func IsRetryable(err error) bool {
	return ClassOf(err) == ClassNetwork
}
