package wallet

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

// Authority 签名方（钱包）
//
// 私钥由签名方自行保管，SDK 只能通过能力接口请求签名，永远拿不到私钥。
// 签名能力通过可选接口表达：
// - MessageSigner: 任意消息签名
// - TransactionSigner: 交易原像签名
//
// 未实现对应接口的签名方视为"不支持该能力"。
type Authority interface {
	// PublicKey 返回签名方声明的公钥；未连接时 ok 为 false
	PublicKey() (pk solana.PublicKey, ok bool)
}

// MessageSigner 支持消息签名的签名方
type MessageSigner interface {
	Authority

	// SignMessage 对 message 原始字节签名
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// TransactionSigner 支持交易签名的签名方
type TransactionSigner interface {
	Authority

	// SignTransaction 对序列化后的交易消息（原像）签名
	SignTransaction(ctx context.Context, preimage []byte) (solana.Signature, error)
}

// Wallet 同时具备两种签名能力的钱包
type Wallet interface {
	MessageSigner
	TransactionSigner
}

// Keypair 本地密钥对钱包（用于 CLI、测试与开发）
//
// 只负责加载已有密钥，不负责生成或保存密钥。可并发使用。
type Keypair struct {
	privateKey   solana.PrivateKey
	publicKey    solana.PublicKey
	disconnected atomic.Bool
}

var _ Wallet = (*Keypair)(nil)

// NewKeypair 从 64 字节 ed25519 私钥创建钱包
func NewKeypair(privateKey solana.PrivateKey) (*Keypair, error) {
	// solana 私钥格式：seed(32) || publicKey(32)
	if len(privateKey) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKey))
	}

	return &Keypair{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

// NewKeypairFromFile 从 solana-keygen 生成的 JSON 密钥文件加载钱包
func NewKeypairFromFile(path string) (*Keypair, error) {
	privateKey, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair file: %w", err)
	}
	return NewKeypair(privateKey)
}

// NewKeypairFromBase58 从 Base58 编码私钥加载钱包
func NewKeypairFromBase58(privateKeyBase58 string) (*Keypair, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return NewKeypair(privateKey)
}

// PublicKey 获取公钥
func (k *Keypair) PublicKey() (solana.PublicKey, bool) {
	if k == nil || k.disconnected.Load() {
		return solana.PublicKey{}, false
	}
	return k.publicKey, true
}

// SignMessage 签名消息（不做哈希，直接对原始字节 ed25519 签名）
func (k *Keypair) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	return k.sign(ctx, message)
}

// SignTransaction 签名交易原像
func (k *Keypair) SignTransaction(ctx context.Context, preimage []byte) (solana.Signature, error) {
	return k.sign(ctx, preimage)
}

// Disconnect 断开钱包，之后 PublicKey 返回 ok=false
func (k *Keypair) Disconnect() {
	k.disconnected.Store(true)
}

// Connect 重新连接钱包
func (k *Keypair) Connect() {
	k.disconnected.Store(false)
}

func (k *Keypair) sign(ctx context.Context, payload []byte) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	if k.disconnected.Load() {
		return solana.Signature{}, fmt.Errorf("wallet disconnected")
	}

	sig, err := k.privateKey.Sign(payload)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("ed25519 sign: %w", err)
	}
	return sig, nil
}
