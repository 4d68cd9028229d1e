package wallet

import (
	"bytes"
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// ConnectedKey 返回签名方当前公钥，未连接返回 AUTHORITY_NOT_CONNECTED
func ConnectedKey(a Authority) (solana.PublicKey, error) {
	if a == nil {
		return solana.PublicKey{}, types.NewError(types.ErrorCodeAuthorityNotConnected, "no wallet", nil)
	}
	pk, ok := a.PublicKey()
	if !ok {
		return solana.PublicKey{}, types.NewError(types.ErrorCodeAuthorityNotConnected, "wallet has no public key", nil)
	}
	return pk, nil
}

// RequestMessageSignature 向签名方请求消息签名，并独立校验返回的签名
//
// **流程**：
// 1. 确认签名方已连接、支持消息签名
// 2. 将消息的副本交给签名方（签名方无法篡改调用方持有的原始字节）
// 3. 用签名方声明的公钥对原始字节重新校验签名
//
// 校验失败返回 SIGNATURE_INTEGRITY_VIOLATION，绝不静默接受。
func RequestMessageSignature(ctx context.Context, a Authority, message []byte) (solana.Signature, solana.PublicKey, error) {
	pk, err := ConnectedKey(a)
	if err != nil {
		return solana.Signature{}, solana.PublicKey{}, err
	}

	signer, ok := a.(MessageSigner)
	if !ok {
		return solana.Signature{}, pk, types.NewError(types.ErrorCodeSigningUnsupported,
			"wallet does not support message signing", nil)
	}

	sig, err := signer.SignMessage(ctx, bytes.Clone(message))
	if err != nil {
		return solana.Signature{}, pk, types.NewError(types.ErrorCodeSigningRejected, "sign message", err)
	}

	if !Verify(message, sig[:], pk[:]) {
		return solana.Signature{}, pk, types.Errorf(types.ErrorCodeSignatureIntegrityViolation,
			"signature %s does not verify against wallet key %s", sig, pk)
	}

	return sig, pk, nil
}

// RequestTransactionSignature 向签名方请求交易原像签名，并独立校验返回的签名
//
// 与 RequestMessageSignature 语义一致，额外要求签名方公钥等于 expectedSigner（手续费支付方）。
func RequestTransactionSignature(ctx context.Context, a Authority, preimage []byte, expectedSigner solana.PublicKey) (solana.Signature, error) {
	pk, err := ConnectedKey(a)
	if err != nil {
		return solana.Signature{}, err
	}

	signer, ok := a.(TransactionSigner)
	if !ok {
		return solana.Signature{}, types.NewError(types.ErrorCodeSigningUnsupported,
			"wallet does not support transaction signing", nil)
	}

	if !pk.Equals(expectedSigner) {
		return solana.Signature{}, types.Errorf(types.ErrorCodeAuthorityMismatch,
			"wallet key %s is not the fee payer %s", pk, expectedSigner)
	}

	sig, err := signer.SignTransaction(ctx, bytes.Clone(preimage))
	if err != nil {
		return solana.Signature{}, types.NewError(types.ErrorCodeSigningRejected, "sign transaction", err)
	}

	if !Verify(preimage, sig[:], pk[:]) {
		return solana.Signature{}, types.Errorf(types.ErrorCodeSignatureIntegrityViolation,
			"transaction signature %s does not verify against wallet key %s", sig, pk)
	}

	return sig, nil
}
