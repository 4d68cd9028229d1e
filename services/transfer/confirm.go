package transfer

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// AwaitConfirmation 等待交易确认
//
// **流程**：
// 1. 查询一次交易状态；终态立即返回
// 2. 按指数退避等待（订阅通知可提前唤醒），截止时间到达返回 Failed(Timeout)
// 3. 查询失败只记录日志，继续轮询
//
// timeout 为 0 时只查询一次。对同一 ID 重复调用结果一致。
func (s *transferService) AwaitConfirmation(ctx context.Context, id solana.Signature, timeout time.Duration) types.ConfirmationStatus {
	start := s.now()
	status := s.awaitConfirmation(ctx, id, timeout)

	if s.metrics != nil {
		s.metrics.ConfirmationsTotal.WithLabelValues(string(status.State), string(status.Reason)).Inc()
		s.metrics.ConfirmationLatency.Observe(s.now().Sub(start).Seconds())
	}

	s.logger.Info("confirmation finished",
		zap.String("signature", id.String()),
		zap.Stringer("status", status),
		zap.Duration("elapsed", s.now().Sub(start)))
	return status
}

func (s *transferService) awaitConfirmation(ctx context.Context, id solana.Signature, timeout time.Duration) types.ConfirmationStatus {
	if timeout < 0 {
		timeout = 0
	}
	conf := s.config.Confirmation
	deadline := s.now().Add(timeout)

	var wake <-chan client.SignatureNotification
	if s.subscriber != nil && timeout > 0 {
		subCtx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()
		ch, err := s.subscriber.SubscribeSignature(subCtx, id)
		if err != nil {
			s.logger.Debug("signature subscription unavailable, polling only", zap.Error(err))
		} else {
			wake = ch
		}
	}

	interval := conf.InitialInterval
	for polls := 1; ; polls++ {
		status := s.pollStatus(ctx, id, deadline)
		if status.IsTerminal() {
			return status
		}

		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return types.Failed(types.ReasonTimeout, "no terminal status after "+timeout.String())
		}
		if err := ctx.Err(); err != nil {
			return types.Failed(types.ReasonTimeout, err.Error())
		}

		wait := interval
		if wait > remaining {
			wait = remaining
		}
		s.logger.Debug("transaction pending",
			zap.String("signature", id.String()),
			zap.Int("poll", polls),
			zap.Duration("next_in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return types.Failed(types.ReasonTimeout, ctx.Err().Error())
		case <-timer.C:
		case note, ok := <-wake:
			timer.Stop()
			// 通知最多一条，之后只靠轮询
			wake = nil
			if ok {
				s.logger.Debug("signature notification received",
					zap.String("signature", id.String()),
					zap.Uint64("slot", note.Slot))
			}
		}

		interval = time.Duration(float64(interval) * conf.Multiplier)
		if interval > conf.MaxInterval {
			interval = conf.MaxInterval
		}
	}
}

// pollStatus 查询一次交易状态
//
// 单次查询至少有 MinQueryTimeout 的时间，即使截止时间已到。
func (s *transferService) pollStatus(ctx context.Context, id solana.Signature, deadline time.Time) types.ConfirmationStatus {
	budget := deadline.Sub(s.now())
	if budget < s.config.Confirmation.MinQueryTimeout {
		budget = s.config.Confirmation.MinQueryTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if s.metrics != nil {
		s.metrics.StatusPolls.Inc()
	}

	st, err := s.conn.GetSignatureStatus(queryCtx, id)
	if err != nil {
		s.logger.Warn("get signature status failed",
			zap.String("signature", id.String()),
			zap.Error(err))
		return types.Pending()
	}
	return s.interpret(st)
}

// interpret 将节点返回的状态映射为确认状态
func (s *transferService) interpret(st *client.SignatureStatus) types.ConfirmationStatus {
	switch {
	case st == nil:
		return types.Pending()
	case st.Failed():
		return types.Failed(types.ReasonTransactionError, string(st.Err))
	case st.ConfirmationStatus.AtLeast(s.config.Commitment):
		return types.Confirmed()
	default:
		return types.Pending()
	}
}
