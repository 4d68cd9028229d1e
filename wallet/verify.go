package wallet

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
)

// Verify 校验 ed25519 签名
//
// 纯函数：无网络、无全局状态、无副作用。
// 签名或公钥长度不合法时返回 false，不返回错误也不 panic，
// 调用方对"格式错误"和"签名无效"一视同仁。
func Verify(message, signature, publicKey []byte) bool {
	if len(signature) != utils.SignatureLength || len(publicKey) != utils.PublicKeyLength {
		return false
	}

	var sig solana.Signature
	var pk solana.PublicKey
	copy(sig[:], signature)
	copy(pk[:], publicKey)

	return sig.Verify(pk, message)
}
