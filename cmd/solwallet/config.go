package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/utils"
)

const envPrefix = "SOLWALLET_"

// Config 命令行全局配置
type Config struct {
	RPCURL     string        `validate:"required,url"`
	WSURL      string        `validate:"omitempty,url"`
	Keypair    string        `validate:"omitempty"`
	Commitment string        `validate:"required,oneof=processed confirmed finalized"`
	Timeout    time.Duration `validate:"gt=0"`
	RateLimit  float64       `validate:"gte=0"`
	Debug      bool
}

// loadDotEnv 加载 .env 文件（不存在时忽略）
func loadDotEnv() error {
	path := os.Getenv(envPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// defaultKeypairPath solana CLI 默认密钥文件
func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// loadConfig 从命令行参数（含环境变量）读取并校验配置
func loadConfig(c *cli.Context) (*Config, error) {
	cfg := &Config{
		RPCURL:     c.String("rpc-url"),
		WSURL:      c.String("ws-url"),
		Keypair:    c.String("keypair"),
		Commitment: c.String("commitment"),
		Timeout:    c.Duration("timeout"),
		RateLimit:  c.Float64("rate-limit"),
		Debug:      c.Bool("debug"),
	}
	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// clientConfig 转换为 JSON-RPC 客户端配置
func (cfg *Config) clientConfig() *client.Config {
	cc := client.DefaultConfig()
	cc.Endpoint = cfg.RPCURL
	cc.WSEndpoint = cfg.WSURL
	cc.Commitment = client.Commitment(cfg.Commitment)
	cc.Timeout = int(cfg.Timeout / time.Second)
	if cc.Timeout <= 0 {
		cc.Timeout = 1
	}
	cc.RateLimit = cfg.RateLimit
	cc.Debug = cfg.Debug
	return cc
}

// newValidator 创建校验器并注册自定义规则
func newValidator() *validator.Validate {
	validate := validator.New()
	if err := validate.RegisterValidation("pubkey", func(fl validator.FieldLevel) bool {
		_, err := utils.ParsePublicKey(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register pubkey validation: %v", err))
	}
	if err := validate.RegisterValidation("signature", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseSignature(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register signature validation: %v", err))
	}
	return validate
}
