// Package wallettest 提供签名方测试替身：已连接 / 未连接 / 不支持签名 / 返回错误签名 / 拒绝签名。
package wallettest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// ErrUserRejected 模拟用户在钱包中拒绝签名
var ErrUserRejected = errors.New("user rejected the request")

// NewKeypair 生成随机密钥对钱包
func NewKeypair(t testing.TB) *wallet.Keypair {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate private key: %v", err)
	}
	kp, err := wallet.NewKeypair(priv)
	if err != nil {
		t.Fatalf("new keypair: %v", err)
	}
	return kp
}

// Disconnected 未连接的签名方
type Disconnected struct{}

func (Disconnected) PublicKey() (solana.PublicKey, bool) { return solana.PublicKey{}, false }

// KeyOnly 只提供公钥、没有任何签名能力的签名方
type KeyOnly struct {
	Key solana.PublicKey
}

func (k KeyOnly) PublicKey() (solana.PublicKey, bool) { return k.Key, true }

// MessageOnly 只支持消息签名、不支持交易签名
type MessageOnly struct {
	Inner *wallet.Keypair
}

func (m MessageOnly) PublicKey() (solana.PublicKey, bool) { return m.Inner.PublicKey() }

func (m MessageOnly) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	return m.Inner.SignMessage(ctx, message)
}

// Rejecting 总是拒绝签名
type Rejecting struct {
	Key solana.PublicKey
}

func (r Rejecting) PublicKey() (solana.PublicKey, bool) { return r.Key, true }

func (r Rejecting) SignMessage(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, ErrUserRejected
}

func (r Rejecting) SignTransaction(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, ErrUserRejected
}

// Impostor 声明一个公钥，却用另一把私钥签名
type Impostor struct {
	Claimed solana.PublicKey
	Signer  *wallet.Keypair
}

func (i Impostor) PublicKey() (solana.PublicKey, bool) { return i.Claimed, true }

func (i Impostor) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	return i.Signer.SignMessage(ctx, message)
}

func (i Impostor) SignTransaction(ctx context.Context, preimage []byte) (solana.Signature, error) {
	return i.Signer.SignTransaction(ctx, preimage)
}

// Tampering 对被篡改后的字节签名（模拟签名内容与请求不一致的钱包）
type Tampering struct {
	Inner *wallet.Keypair
}

func (t Tampering) PublicKey() (solana.PublicKey, bool) { return t.Inner.PublicKey() }

func (t Tampering) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	return t.Inner.SignMessage(ctx, tamper(message))
}

func (t Tampering) SignTransaction(ctx context.Context, preimage []byte) (solana.Signature, error) {
	return t.Inner.SignTransaction(ctx, tamper(preimage))
}

func tamper(b []byte) []byte {
	// 原地修改：验证方持有的原始字节不应受影响
	if len(b) == 0 {
		return []byte{0x00}
	}
	b[0] ^= 0x01
	return b
}

// Counting 记录签名调用次数
type Counting struct {
	Inner    wallet.Wallet
	Messages atomic.Int64
	Txs      atomic.Int64
}

func (c *Counting) PublicKey() (solana.PublicKey, bool) { return c.Inner.PublicKey() }

func (c *Counting) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	c.Messages.Add(1)
	return c.Inner.SignMessage(ctx, message)
}

func (c *Counting) SignTransaction(ctx context.Context, preimage []byte) (solana.Signature, error) {
	c.Txs.Add(1)
	return c.Inner.SignTransaction(ctx, preimage)
}
