package transfer

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
)

// Build 构造未签名转账
//
// **校验**：
// - lamports 必须大于 0，否则 INVALID_AMOUNT
// - recipient 必须是 32 字节公钥的 base58 编码，否则 INVALID_RECIPIENT
// - 允许发送方与接收方相同（网络按普通转账处理，仅扣手续费）
func (s *transferService) Build(sender solana.PublicKey, recipient string, lamports uint64) (*UnsignedTransfer, error) {
	t, err := build(sender, recipient, lamports)
	s.metrics.step("build", err)
	return t, err
}

// BuildFromInput 从十进制 SOL 字符串构造未签名转账
func (s *transferService) BuildFromInput(sender solana.PublicKey, recipient, sol string) (*UnsignedTransfer, error) {
	lamports, err := utils.ParseSOL(sol)
	if err != nil {
		s.metrics.step("build", err)
		return nil, err
	}
	return s.Build(sender, recipient, lamports)
}

func build(sender solana.PublicKey, recipient string, lamports uint64) (*UnsignedTransfer, error) {
	if lamports == 0 {
		return nil, types.NewError(types.ErrorCodeInvalidAmount, "amount must be greater than zero", nil)
	}
	if sender == (solana.PublicKey{}) {
		return nil, types.NewError(types.ErrorCodeInvalidPublicKey, "sender public key is empty", nil)
	}

	to, err := utils.ParsePublicKey(recipient)
	if err != nil {
		detail := err.Error()
		if we, ok := types.IsWalletError(err); ok {
			detail = we.Detail
		}
		return nil, types.NewError(types.ErrorCodeInvalidRecipient, detail, nil)
	}

	return &UnsignedTransfer{
		Sender:    sender,
		Recipient: to,
		Lamports:  lamports,
	}, nil
}
