package signature

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// Service 消息签名服务接口
type Service interface {
	// Sign 请求签名方对任意消息签名，返回前强制校验签名
	// authority 参数可选：如果提供则使用，否则使用服务实例的默认签名方
	Sign(ctx context.Context, message []byte, authority ...wallet.Authority) (*SignedMessage, error)

	// Verify 校验签名（纯函数，不访问网络）
	Verify(message, signature, publicKey []byte) bool

	// VerifyBase58 校验 base58 编码的签名与公钥，任何解码失败都返回 false
	VerifyBase58(message []byte, signatureB58, publicKeyB58 string) bool
}

// SignedMessage 已签名消息
type SignedMessage struct {
	Message   []byte           `json:"-"`
	Signature solana.Signature `json:"signature"`
	PublicKey solana.PublicKey `json:"publicKey"`
}

// SignatureBase58 签名的 base58 文本
func (m *SignedMessage) SignatureBase58() string {
	return m.Signature.String()
}

// PublicKeyBase58 公钥的 base58 文本
func (m *SignedMessage) PublicKeyBase58() string {
	return m.PublicKey.String()
}

// signatureService 签名服务实现
type signatureService struct {
	authority wallet.Authority // 可选：默认签名方
	logger    *zap.Logger
}

// Option 服务选项
type Option func(*signatureService)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *signatureService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService 创建签名服务（不带默认签名方）
func NewService(opts ...Option) Service {
	s := &signatureService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceWithWallet 创建带默认签名方的签名服务
func NewServiceWithWallet(a wallet.Authority, opts ...Option) Service {
	s := NewService(opts...).(*signatureService)
	s.authority = a
	return s
}

// getAuthority 获取签名方（优先使用参数，其次使用默认签名方）
func (s *signatureService) getAuthority(authorities ...wallet.Authority) wallet.Authority {
	if len(authorities) > 0 && authorities[0] != nil {
		return authorities[0]
	}
	return s.authority
}

// Sign 消息签名
//
// **流程**：
// 1. 获取签名方（未连接返回 AUTHORITY_NOT_CONNECTED）
// 2. 将消息原样交给签名方（不做任何规范化，空消息合法）
// 3. 用签名方声明的公钥校验返回的签名，失败返回 SIGNATURE_INTEGRITY_VIOLATION
func (s *signatureService) Sign(ctx context.Context, message []byte, authorities ...wallet.Authority) (*SignedMessage, error) {
	a := s.getAuthority(authorities...)

	sig, pk, err := wallet.RequestMessageSignature(ctx, a, message)
	if err != nil {
		s.logger.Warn("message signing failed",
			zap.Int("message_len", len(message)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("message signed",
		zap.String("public_key", pk.String()),
		zap.String("signature", utils.Shorten(sig.String(), 8)),
		zap.Int("message_len", len(message)))

	return &SignedMessage{
		Message:   append([]byte(nil), message...),
		Signature: sig,
		PublicKey: pk,
	}, nil
}

// Verify 校验签名
func (s *signatureService) Verify(message, signature, publicKey []byte) bool {
	return wallet.Verify(message, signature, publicKey)
}

// VerifyBase58 校验 base58 编码的签名与公钥
func (s *signatureService) VerifyBase58(message []byte, signatureB58, publicKeyB58 string) bool {
	sig, err := utils.ParseSignature(signatureB58)
	if err != nil {
		return false
	}
	pk, err := utils.ParsePublicKey(publicKeyB58)
	if err != nil {
		return false
	}
	return wallet.Verify(message, sig[:], pk[:])
}
