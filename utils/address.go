package utils

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

const (
	// PublicKeyLength 公钥长度（ed25519）
	PublicKeyLength = 32
	// SignatureLength 签名长度（ed25519）
	SignatureLength = 64
)

// ParsePublicKey 将 Base58 字符串解码为 32 字节公钥
//
// **注意**：
// - 不做任何裁剪（trim）或大小写处理，输入必须是规范 Base58
// - 解码失败或长度不是 32 字节都返回 INVALID_PUBLIC_KEY
func ParsePublicKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, types.NewError(types.ErrorCodeInvalidPublicKey, "empty public key", nil)
	}

	// btcutil 的 Decode 在遇到非法字符时返回空切片
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return solana.PublicKey{}, types.Errorf(types.ErrorCodeInvalidPublicKey, "not a base58 string: %q", s)
	}

	return PublicKeyFromBytes(decoded)
}

// PublicKeyFromBytes 从原始字节构造公钥，长度必须为 32
func PublicKeyFromBytes(b []byte) (solana.PublicKey, error) {
	if len(b) != PublicKeyLength {
		return solana.PublicKey{}, types.Errorf(types.ErrorCodeInvalidPublicKey,
			"invalid public key length: expected %d bytes, got %d", PublicKeyLength, len(b))
	}
	var pk solana.PublicKey
	copy(pk[:], b)
	return pk, nil
}

// ParseSignature 将 Base58 字符串解码为 64 字节签名
//
// 解码失败或长度不是 64 字节都返回 INVALID_SIGNATURE
func ParseSignature(s string) (solana.Signature, error) {
	decoded := base58.Decode(s)
	if len(decoded) != SignatureLength {
		return solana.Signature{}, types.Errorf(types.ErrorCodeInvalidSignature,
			"expected %d bytes after Base58 decode, got %d", SignatureLength, len(decoded))
	}
	var sig solana.Signature
	copy(sig[:], decoded)
	return sig, nil
}

// EncodeBase58 Base58 编码
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// Shorten 截断显示，保留首尾各 n 个字符，例如 "7xKX...9fQa"
func Shorten(s string, n int) string {
	if n <= 0 || len(s) <= 2*n+3 {
		return s
	}
	return s[:n] + "..." + s[len(s)-n:]
}
