package transfer

import (
	"context"

	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// Sign 签名交易信封
//
// **流程**：
// 1. 由信封生成交易原像（legacy 消息字节）
// 2. 签名方公钥必须等于手续费支付方，否则 AUTHORITY_MISMATCH
// 3. 签名方返回的签名用原像重新校验，失败返回 SIGNATURE_INTEGRITY_VIOLATION
//
// 返回新的信封，入参不被修改。
func (s *transferService) Sign(ctx context.Context, env *Envelope, authorities ...wallet.Authority) (*Envelope, error) {
	signed, err := s.sign(ctx, env, s.getAuthority(authorities...))
	s.metrics.step("sign", err)
	return signed, err
}

func (s *transferService) sign(ctx context.Context, env *Envelope, a wallet.Authority) (*Envelope, error) {
	if env == nil {
		return nil, types.NewError(types.ErrorCodeInvalidState, "envelope is nil", nil)
	}
	if env.Signed() {
		return nil, types.NewError(types.ErrorCodeInvalidState, "envelope is already signed", nil)
	}

	preimage, err := env.Preimage()
	if err != nil {
		return nil, types.NewError(types.ErrorCodeInvalidState, "build transaction preimage", err)
	}

	sig, err := wallet.RequestTransactionSignature(ctx, a, preimage, env.FeePayer)
	if err != nil {
		s.logger.Warn("transaction signing failed",
			zap.String("fee_payer", env.FeePayer.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("transaction signed",
		zap.String("signature", utils.Shorten(sig.String(), 8)),
		zap.Int("preimage_len", len(preimage)))

	out := *env
	out.Signature = &sig
	return &out, nil
}
