package transfer

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/services"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// Submit 广播已签名交易
//
// **注意**：
// - 节点拒绝（blockhash 过期、余额不足、交易格式错误）返回 BROADCAST_REJECTED，原因取节点消息
// - 连接失败返回 NETWORK_UNAVAILABLE
// - 不会自动重试：重复广播可能导致重复提交，调用方应先查询状态再决定
func (s *transferService) Submit(ctx context.Context, env *Envelope) (solana.Signature, error) {
	id, err := s.submit(ctx, env)
	s.metrics.step("submit", err)
	if err == nil && s.metrics != nil {
		s.metrics.LamportsSubmitted.Add(float64(env.Transfer.Lamports))
	}
	return id, err
}

func (s *transferService) submit(ctx context.Context, env *Envelope) (solana.Signature, error) {
	if !env.Signed() {
		return solana.Signature{}, types.NewError(types.ErrorCodeInvalidState, "envelope is not signed", nil)
	}

	raw, err := env.Serialize()
	if err != nil {
		return solana.Signature{}, err
	}

	id, err := s.conn.SendTransaction(ctx, raw)
	if err != nil {
		s.logger.Warn("send transaction failed",
			zap.String("signature", env.Signature.String()),
			zap.Error(err))
		return solana.Signature{}, services.BroadcastError("send transaction", err)
	}

	// 交易 ID 即手续费支付方的签名
	if id != *env.Signature {
		return solana.Signature{}, types.Errorf(types.ErrorCodeSignatureIntegrityViolation,
			"node returned transaction id %s, expected %s", id, env.Signature)
	}

	s.logger.Info("transaction submitted",
		zap.String("signature", id.String()),
		zap.String("sender", env.Transfer.Sender.String()),
		zap.String("recipient", env.Transfer.Recipient.String()),
		zap.Uint64("lamports", env.Transfer.Lamports))

	return id, nil
}
