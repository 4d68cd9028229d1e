package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/logger"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/account"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/signature"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/transfer"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

// 可在测试中替换
var (
	dial = func(cfg *Config, l *zap.Logger) (client.Connection, error) {
		cc := cfg.clientConfig()
		cc.Logger = client.NewZapLogger(l)
		return client.NewClient(cc)
	}
	dialSubscriber = func(ctx context.Context, cfg *Config, l *zap.Logger) (client.SignatureSubscriber, func(), error) {
		cc := cfg.clientConfig()
		cc.Logger = client.NewZapLogger(l)
		ws, err := client.NewWebSocketClient(ctx, cc)
		if err != nil {
			return nil, nil, err
		}
		return ws, func() { _ = ws.Close() }, nil
	}
	newLogger = func(cfg *Config) (*zap.Logger, error) {
		return logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	}
)

// session 单条命令的运行环境
type session struct {
	cfg    *Config
	logger *zap.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &session{cfg: cfg, logger: l}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func (s *session) connect() (client.Connection, error) {
	conn, err := dial(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return conn, nil
}

func (s *session) keypair() (*wallet.Keypair, error) {
	if s.cfg.Keypair == "" {
		return nil, fmt.Errorf("no keypair configured (use --keypair or %sKEYPAIR)", envPrefix)
	}
	kp, err := wallet.NewKeypairFromFile(s.cfg.Keypair)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair: %w", err)
	}
	return kp, nil
}

// address 命令行地址参数为空时使用密钥对地址
func (s *session) address(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	kp, err := s.keypair()
	if err != nil {
		return "", err
	}
	pk, _ := kp.PublicKey()
	return pk.String(), nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type addressInput struct {
	Address string `validate:"required,pubkey"`
}

type airdropInput struct {
	Address string `validate:"required,pubkey"`
	Amount  string `validate:"required,numeric"`
}

type verifyInput struct {
	Signature string `validate:"required,signature"`
	PublicKey string `validate:"required,pubkey"`
}

type sendInput struct {
	To     string `validate:"required"`
	Amount string `validate:"required"`
}

func addressCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	kp, err := s.keypair()
	if err != nil {
		return err
	}
	pk, _ := kp.PublicKey()
	fmt.Fprintln(c.App.Writer, pk.String())
	return nil
}

func balanceCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	addr, err := s.address(c.String("address"))
	if err != nil {
		return err
	}
	if err := newValidator().Struct(&addressInput{Address: addr}); err != nil {
		return types.NewError(types.ErrorCodeInvalidPublicKey, addr, err)
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	bal, err := account.NewService(conn, account.WithLogger(s.logger)).GetBalance(c.Context, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s SOL (%d lamports)\n", bal.SOL(), bal.Lamports)
	return nil
}

func airdropCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	addr, err := s.address(c.String("address"))
	if err != nil {
		return err
	}
	in := &airdropInput{Address: addr, Amount: c.String("amount")}
	if err := newValidator().Struct(in); err != nil {
		return fmt.Errorf("invalid airdrop request: %w", err)
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	sig, err := account.NewService(conn, account.WithLogger(s.logger)).RequestAirdrop(c.Context, in.Address, in.Amount)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, sig.String())
	return nil
}

func signCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	kp, err := s.keypair()
	if err != nil {
		return err
	}

	svc := signature.NewServiceWithWallet(kp, signature.WithLogger(s.logger))
	signed, err := svc.Sign(c.Context, []byte(c.String("message")))
	if err != nil {
		return err
	}
	return printJSON(c, signed)
}

func verifyCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	in := &verifyInput{Signature: c.String("signature"), PublicKey: c.String("pubkey")}
	if err := newValidator().Struct(in); err != nil {
		return cli.Exit(fmt.Sprintf("invalid: %v", err), 1)
	}

	svc := signature.NewService(signature.WithLogger(s.logger))
	if !svc.VerifyBase58([]byte(c.String("message")), in.Signature, in.PublicKey) {
		return cli.Exit("invalid", 1)
	}
	fmt.Fprintln(c.App.Writer, "valid")
	return nil
}

func sendCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	kp, err := s.keypair()
	if err != nil {
		return err
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	reg := newRegistry()
	if addr := c.String("metrics-addr"); addr != "" {
		_, stop, err := serveMetrics(addr, reg, s.logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	opts := []transfer.Option{
		transfer.WithLogger(s.logger),
		transfer.WithConfig(&services.Config{Commitment: client.Commitment(s.cfg.Commitment)}),
		transfer.WithMetrics(transfer.NewMetricsWithRegistry(reg)),
	}
	if c.Bool("subscribe") {
		sub, closeSub, err := dialSubscriber(c.Context, s.cfg, s.logger)
		if err != nil {
			s.logger.Warn("signature subscription unavailable, polling only", zap.Error(err))
		} else {
			defer closeSub()
			opts = append(opts, transfer.WithSubscriber(sub))
		}
	}
	svc := transfer.NewServiceWithWallet(conn, kp, opts...)

	attempt, err := loadOrBuildAttempt(c, svc, kp)
	if err != nil {
		return err
	}

	runErr := svc.Run(c.Context, attempt)
	if path := c.String("save"); path != "" {
		if err := saveAttempt(path, attempt); err != nil {
			s.logger.Error("failed to save attempt", zap.String("path", path), zap.Error(err))
		}
	}
	if err := printJSON(c, attempt); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if attempt.Stage != transfer.StageConfirmed {
		return cli.Exit(attempt.Status.String(), 1)
	}
	return nil
}

// loadOrBuildAttempt 恢复已保存的尝试，或构建新的转账尝试
func loadOrBuildAttempt(c *cli.Context, svc transfer.Service, kp *wallet.Keypair) (*transfer.Attempt, error) {
	if path := c.String("resume"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attempt: %w", err)
		}
		var a transfer.Attempt
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode attempt: %w", err)
		}
		return &a, nil
	}

	in := &sendInput{To: c.String("to"), Amount: c.String("amount")}
	if err := newValidator().Struct(in); err != nil {
		return nil, fmt.Errorf("invalid transfer: %w", err)
	}
	sender, _ := kp.PublicKey()
	t, err := svc.BuildFromInput(sender, in.To, in.Amount)
	if err != nil {
		return nil, err
	}
	return svc.NewAttempt(t, c.Duration("wait")), nil
}

func saveAttempt(path string, a *transfer.Attempt) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func statusCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := utils.ParseSignature(c.String("signature"))
	if err != nil {
		return err
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	svc := transfer.NewService(conn,
		transfer.WithLogger(s.logger),
		transfer.WithConfig(&services.Config{Commitment: client.Commitment(s.cfg.Commitment)}))
	status := svc.AwaitConfirmation(c.Context, id, c.Duration("wait"))
	return printJSON(c, status)
}
