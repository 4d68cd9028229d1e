package types

import (
	"encoding/json"
	"fmt"
)

// ConfirmationState 交易确认状态
type ConfirmationState string

const (
	StatePending   ConfirmationState = "pending"
	StateConfirmed ConfirmationState = "confirmed"
	StateFailed    ConfirmationState = "failed"
)

// FailureReason 失败原因
type FailureReason string

const (
	// ReasonTimeout 在截止时间内未观察到终态
	ReasonTimeout FailureReason = "timeout"
	// ReasonTransactionError 链上执行失败（err 非空）
	ReasonTransactionError FailureReason = "transaction_error"
	// ReasonAborted 确认轮询之前的某一步失败
	ReasonAborted FailureReason = "aborted"
)

// ConfirmationStatus 确认状态
//
// Pending 是唯一的非终态；Confirmed 与 Failed 为终态。
type ConfirmationStatus struct {
	State  ConfirmationState `json:"state"`
	Reason FailureReason     `json:"reason,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

// Pending 返回 Pending 状态
func Pending() ConfirmationStatus {
	return ConfirmationStatus{State: StatePending}
}

// Confirmed 返回 Confirmed 状态
func Confirmed() ConfirmationStatus {
	return ConfirmationStatus{State: StateConfirmed}
}

// Failed 返回 Failed(reason) 状态
func Failed(reason FailureReason, detail string) ConfirmationStatus {
	return ConfirmationStatus{State: StateFailed, Reason: reason, Detail: detail}
}

// IsTerminal 是否为终态
func (s ConfirmationStatus) IsTerminal() bool {
	return s.State == StateConfirmed || s.State == StateFailed
}

func (s ConfirmationStatus) String() string {
	switch {
	case s.State != StateFailed:
		return string(s.State)
	case s.Detail != "":
		return fmt.Sprintf("failed(%s): %s", s.Reason, s.Detail)
	}
	return fmt.Sprintf("failed(%s)", s.Reason)
}

// MarshalJSON 保证零值序列化为 pending
func (s ConfirmationStatus) MarshalJSON() ([]byte, error) {
	type alias ConfirmationStatus
	if s.State == "" {
		s.State = StatePending
	}
	return json.Marshal(alias(s))
}
