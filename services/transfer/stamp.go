package transfer

import (
	"context"

	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/services"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// Stamp 为转账加盖最新 blockhash
//
// blockhash 有效期很短（约 60 秒）；过期后广播会被节点拒绝，
// 属于可重试的网络类错误，由调用方决定是否重新 Stamp。
func (s *transferService) Stamp(ctx context.Context, t *UnsignedTransfer) (*Envelope, error) {
	env, err := s.stamp(ctx, t)
	s.metrics.step("stamp", err)
	return env, err
}

func (s *transferService) stamp(ctx context.Context, t *UnsignedTransfer) (*Envelope, error) {
	if t == nil {
		return nil, types.NewError(types.ErrorCodeInvalidState, "transfer is nil", nil)
	}
	if t.Lamports == 0 {
		return nil, types.NewError(types.ErrorCodeInvalidAmount, "amount must be greater than zero", nil)
	}

	latest, err := s.conn.GetLatestBlockhash(ctx)
	if err != nil {
		s.logger.Warn("get latest blockhash failed", zap.Error(err))
		return nil, services.NetworkError("get latest blockhash", err)
	}

	s.logger.Debug("transfer stamped",
		zap.String("blockhash", latest.Blockhash.String()),
		zap.Uint64("last_valid_block_height", latest.LastValidBlockHeight))

	return &Envelope{
		Transfer:             *t,
		Blockhash:            latest.Blockhash,
		LastValidBlockHeight: latest.LastValidBlockHeight,
		FeePayer:             t.Sender,
	}, nil
}
