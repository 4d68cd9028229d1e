package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// Stage 转账尝试所处阶段
type Stage string

const (
	StageBuilt     Stage = "built"
	StageStamped   Stage = "stamped"
	StageSigned    Stage = "signed"
	StageSubmitted Stage = "submitted"
	StageConfirmed Stage = "confirmed"
	StageFailed    Stage = "failed"
)

// Terminal 是否为终态
func (s Stage) Terminal() bool {
	return s == StageConfirmed || s == StageFailed
}

// Transition 一次状态迁移
type Transition struct {
	From   Stage     `json:"from"`
	To     Stage     `json:"to"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// AttemptError 导致尝试失败的错误（可序列化）
type AttemptError struct {
	Code    types.ErrorCode  `json:"code"`
	Class   types.ErrorClass `json:"class"`
	Message string           `json:"message"`
	TraceID string           `json:"traceId,omitempty"`
}

// Attempt 一次转账尝试
//
// 显式的带标签状态值：可以序列化保存，之后用 Run 从当前阶段继续。
// 阶段与已填字段一一对应：Stamped 起有 Envelope，Signed 起 Envelope 已签名，
// Submitted 起有 TxID。
type Attempt struct {
	ID        string                   `json:"id"`
	Stage     Stage                    `json:"stage"`
	Transfer  UnsignedTransfer         `json:"transfer"`
	Envelope  *Envelope                `json:"envelope,omitempty"`
	TxID      *solana.Signature        `json:"txId,omitempty"`
	Status    types.ConfirmationStatus `json:"status"`
	Error     *AttemptError            `json:"error,omitempty"`
	Timeout   time.Duration            `json:"timeout"`
	History   []Transition             `json:"history"`
	CreatedAt time.Time                `json:"createdAt"`
}

// Terminal 是否已到终态
func (a *Attempt) Terminal() bool {
	return a.Stage.Terminal()
}

// NewAttempt 创建转账尝试
//
// timeout 为确认等待时间，0 或负数使用配置的默认值。
func (s *transferService) NewAttempt(t *UnsignedTransfer, timeout time.Duration) *Attempt {
	if timeout <= 0 {
		timeout = s.config.Confirmation.DefaultTimeout
	}
	a := &Attempt{
		ID:        uuid.New().String(),
		Stage:     StageBuilt,
		Status:    types.Pending(),
		Timeout:   timeout,
		CreatedAt: s.now().UTC(),
	}
	if t != nil {
		a.Transfer = *t
	}
	return a
}

func (s *transferService) advance(a *Attempt, to Stage, detail string) {
	a.History = append(a.History, Transition{
		From:   a.Stage,
		To:     to,
		At:     s.now().UTC(),
		Detail: detail,
	})
	s.logger.Debug("attempt transition",
		zap.String("attempt", a.ID),
		zap.String("from", string(a.Stage)),
		zap.String("to", string(to)))
	a.Stage = to
}

func (s *transferService) fail(a *Attempt, err error) error {
	ae := &AttemptError{Message: err.Error()}
	if we, ok := types.IsWalletError(err); ok {
		ae.Code = we.Code
		ae.Class = we.Class
		ae.TraceID = we.TraceID
	}
	a.Error = ae
	a.Status = types.Failed(types.ReasonAborted, string(ae.Code))
	s.advance(a, StageFailed, err.Error())
	return err
}

// check 校验阶段与已填字段一致（反序列化得到的尝试可能被改动）
//
// Stamped 起信封必须与转账意图一致且手续费支付方为发送方；
// Submitted 的交易 ID 必须等于信封上的签名。
func (a *Attempt) check() error {
	switch a.Stage {
	case StageBuilt, StageConfirmed, StageFailed:
		return nil
	case StageStamped, StageSigned, StageSubmitted:
	default:
		return fmt.Errorf("unknown stage %q", a.Stage)
	}

	if a.Envelope == nil {
		return fmt.Errorf("stage %s without envelope", a.Stage)
	}
	if a.Envelope.Transfer != a.Transfer {
		return fmt.Errorf("stage %s: envelope transfer does not match attempt transfer", a.Stage)
	}
	if a.Envelope.FeePayer != a.Transfer.Sender {
		return fmt.Errorf("stage %s: fee payer %s is not the sender %s",
			a.Stage, a.Envelope.FeePayer, a.Transfer.Sender)
	}
	if a.Stage == StageStamped {
		return nil
	}

	if !a.Envelope.Signed() {
		return fmt.Errorf("stage %s without signed envelope", a.Stage)
	}
	if a.Stage == StageSubmitted {
		if a.TxID == nil {
			return fmt.Errorf("stage %s without transaction id", a.Stage)
		}
		if *a.TxID != *a.Envelope.Signature {
			return fmt.Errorf("stage %s: transaction id does not match envelope signature", a.Stage)
		}
	}
	return nil
}

// Run 驱动转账尝试直到终态
//
// **说明**：
// - 每一步失败都会把尝试置为 Failed 并返回该步的错误
// - 已提交的尝试只会继续等待确认，绝不重新广播
// - 确认超时或链上执行失败不是 Run 的错误，结果见 Attempt.Status
// - 已是终态的尝试直接返回 nil
func (s *transferService) Run(ctx context.Context, a *Attempt, authorities ...wallet.Authority) error {
	if a == nil {
		return types.NewError(types.ErrorCodeInvalidState, "attempt is nil", nil)
	}
	if err := a.check(); err != nil {
		return types.NewError(types.ErrorCodeInvalidState, "resume attempt", err)
	}

	for !a.Terminal() {
		switch a.Stage {
		case StageBuilt:
			if _, err := build(a.Transfer.Sender, a.Transfer.Recipient.String(), a.Transfer.Lamports); err != nil {
				return s.fail(a, err)
			}
			env, err := s.Stamp(ctx, &a.Transfer)
			if err != nil {
				return s.fail(a, err)
			}
			a.Envelope = env
			s.advance(a, StageStamped, env.Blockhash.String())

		case StageStamped:
			signed, err := s.Sign(ctx, a.Envelope, authorities...)
			if err != nil {
				return s.fail(a, err)
			}
			a.Envelope = signed
			s.advance(a, StageSigned, "")

		case StageSigned:
			id, err := s.Submit(ctx, a.Envelope)
			if err != nil {
				return s.fail(a, err)
			}
			a.TxID = &id
			s.advance(a, StageSubmitted, id.String())

		case StageSubmitted:
			status := s.AwaitConfirmation(ctx, *a.TxID, a.Timeout)
			a.Status = status
			if status.State == types.StateConfirmed {
				s.advance(a, StageConfirmed, "")
			} else {
				s.advance(a, StageFailed, status.String())
			}
		}
	}
	return nil
}
