package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Connection 链节点连接
//
// 所有方法都可被多个独立的转账尝试并发调用。
type Connection interface {
	// GetLatestBlockhash 获取最新 blockhash（交易新鲜度令牌）
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// GetBalance 查询账户余额（lamports）
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// SendTransaction 广播已签名的序列化交易，返回交易签名（即交易 ID）
	SendTransaction(ctx context.Context, rawTx []byte) (solana.Signature, error)

	// GetSignatureStatus 查询交易状态；节点尚未见过该交易时返回 nil
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	// RequestAirdrop 请求水龙头空投（仅 devnet / testnet）
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)

	// Close 关闭连接
	Close() error
}

// SignatureSubscriber 交易签名订阅（可选能力）
//
// 通知只用于提前唤醒确认轮询，最终状态仍以 GetSignatureStatus 为准。
type SignatureSubscriber interface {
	SubscribeSignature(ctx context.Context, sig solana.Signature) (<-chan SignatureNotification, error)
}

// Commitment 确认级别
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

var commitmentRank = map[Commitment]int{
	CommitmentProcessed: 1,
	CommitmentConfirmed: 2,
	CommitmentFinalized: 3,
}

// Valid 是否为已知确认级别
func (c Commitment) Valid() bool {
	_, ok := commitmentRank[c]
	return ok
}

// AtLeast c 是否达到 target 级别
func (c Commitment) AtLeast(target Commitment) bool {
	return commitmentRank[c] >= commitmentRank[target] && commitmentRank[c] > 0
}

// LatestBlockhash blockhash 及其最后有效区块高度
type LatestBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus 交易状态
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus Commitment      `json:"confirmationStatus"`
}

// Failed 交易是否执行失败
func (s *SignatureStatus) Failed() bool {
	return hasErr(s.Err)
}

// SignatureNotification 签名订阅通知
type SignatureNotification struct {
	Slot uint64
	Err  json.RawMessage
}

// Failed 交易是否执行失败
func (n SignatureNotification) Failed() bool {
	return hasErr(n.Err)
}

func hasErr(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// NewClient 创建新的连接
func NewClient(config *Config) (Connection, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolHTTP, "":
		c, err := NewHTTPClient(config)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", config.Protocol)
	}
}
