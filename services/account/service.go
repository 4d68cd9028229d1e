package account

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
)

// Service 账户服务接口
type Service interface {
	// GetBalance 查询余额（lamports）
	GetBalance(ctx context.Context, address string) (*Balance, error)

	// RequestAirdrop 请求水龙头空投，金额为十进制 SOL 字符串
	// 只发起一次请求，不等待确认，也不自动重试
	RequestAirdrop(ctx context.Context, address, sol string) (solana.Signature, error)
}

// Balance 账户余额
type Balance struct {
	Address  solana.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
}

// SOL 4 位小数的 SOL 文本
func (b *Balance) SOL() string {
	return utils.FormatSOL(b.Lamports)
}

// accountService 账户服务实现
type accountService struct {
	conn   client.Connection
	logger *zap.Logger
}

// Option 服务选项
type Option func(*accountService)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *accountService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService 创建账户服务
func NewService(conn client.Connection, opts ...Option) Service {
	s := &accountService{
		conn:   conn,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance 查询余额
func (s *accountService) GetBalance(ctx context.Context, address string) (*Balance, error) {
	pk, err := utils.ParsePublicKey(address)
	if err != nil {
		return nil, err
	}

	lamports, err := s.conn.GetBalance(ctx, pk)
	if err != nil {
		s.logger.Warn("get balance failed", zap.String("address", address), zap.Error(err))
		return nil, services.NetworkError("get balance", err)
	}

	return &Balance{Address: pk, Lamports: lamports}, nil
}

// RequestAirdrop 请求空投
//
// **注意**：
// - 地址与金额先在本地校验，非法输入不会触发网络请求
// - 水龙头拒绝（额度用尽、主网不支持）返回 BROADCAST_REJECTED
func (s *accountService) RequestAirdrop(ctx context.Context, address, sol string) (solana.Signature, error) {
	pk, err := utils.ParsePublicKey(address)
	if err != nil {
		return solana.Signature{}, err
	}
	lamports, err := utils.ParseSOL(sol)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := s.conn.RequestAirdrop(ctx, pk, lamports)
	if err != nil {
		s.logger.Warn("airdrop failed",
			zap.String("address", address),
			zap.Uint64("lamports", lamports),
			zap.Error(err))
		return solana.Signature{}, services.BroadcastError("request airdrop", err)
	}

	s.logger.Info("airdrop requested",
		zap.String("address", address),
		zap.String("amount", utils.FormatSOLExact(lamports)),
		zap.String("signature", sig.String()))
	return sig, nil
}
