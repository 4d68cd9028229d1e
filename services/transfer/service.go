package transfer

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// Service 转账交易服务接口
//
// 生命周期：Build → Stamp → Sign → Submit → AwaitConfirmation。
// 每一步只可能因一种原因失败，调用方据此决定补救方式。
type Service interface {
	// Build 校验金额与接收方，构造未签名转账（不访问网络）
	Build(sender solana.PublicKey, recipient string, lamports uint64) (*UnsignedTransfer, error)

	// BuildFromInput 与 Build 相同，金额为十进制 SOL 字符串
	BuildFromInput(sender solana.PublicKey, recipient, sol string) (*UnsignedTransfer, error)

	// Stamp 获取最新 blockhash，发送方记为手续费支付方
	Stamp(ctx context.Context, t *UnsignedTransfer) (*Envelope, error)

	// Sign 请求签名方对交易原像签名并校验
	// authority 参数可选：如果提供则使用，否则使用服务实例的默认签名方
	Sign(ctx context.Context, env *Envelope, authority ...wallet.Authority) (*Envelope, error)

	// Submit 广播已签名交易，返回交易 ID（不会自动重试）
	Submit(ctx context.Context, env *Envelope) (solana.Signature, error)

	// AwaitConfirmation 轮询交易状态直到终态或超时
	AwaitConfirmation(ctx context.Context, id solana.Signature, timeout time.Duration) types.ConfirmationStatus

	// NewAttempt 为未签名转账创建一次转账尝试
	NewAttempt(t *UnsignedTransfer, timeout time.Duration) *Attempt

	// Run 从当前状态驱动转账尝试到终态
	Run(ctx context.Context, attempt *Attempt, authority ...wallet.Authority) error
}

// transferService 转账服务实现
type transferService struct {
	conn       client.Connection
	subscriber client.SignatureSubscriber // 可选：确认提前唤醒
	authority  wallet.Authority           // 可选：默认签名方
	config     *services.Config
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
}

// Option 服务选项
type Option func(*transferService)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *transferService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(s *transferService) {
		s.metrics = m
	}
}

// WithSubscriber 设置签名订阅，用于交易落块时提前唤醒确认轮询
func WithSubscriber(sub client.SignatureSubscriber) Option {
	return func(s *transferService) {
		s.subscriber = sub
	}
}

// WithConfig 设置业务配置
func WithConfig(c *services.Config) Option {
	return func(s *transferService) {
		s.config = c.WithDefaults()
	}
}

// WithAuthority 设置默认签名方
func WithAuthority(a wallet.Authority) Option {
	return func(s *transferService) {
		s.authority = a
	}
}

// NewService 创建转账服务
func NewService(conn client.Connection, opts ...Option) Service {
	return newService(conn, opts...)
}

// NewServiceWithWallet 创建带默认签名方的转账服务
func NewServiceWithWallet(conn client.Connection, a wallet.Authority, opts ...Option) Service {
	return newService(conn, append(opts, WithAuthority(a))...)
}

func newService(conn client.Connection, opts ...Option) *transferService {
	s := &transferService{
		conn:   conn,
		config: services.DefaultConfig(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getAuthority 获取签名方（优先使用参数，其次使用默认签名方）
func (s *transferService) getAuthority(authorities ...wallet.Authority) wallet.Authority {
	if len(authorities) > 0 && authorities[0] != nil {
		return authorities[0]
	}
	return s.authority
}

func errorOutcome(err error) string {
	if code := types.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
