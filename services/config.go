package services

import (
	"time"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
)

// Config 业务服务共享配置
//
// **说明**：
// - 所有字段均为可选，零值字段使用 DefaultConfig 中的默认值
// - 节点地址与凭据属于 client.Config，这里只放业务层参数
type Config struct {
	// Commitment 判定交易已确认所需的最低确认级别
	Commitment client.Commitment

	// Confirmation 确认轮询参数
	Confirmation ConfirmationConfig
}

// ConfirmationConfig 确认轮询参数
type ConfirmationConfig struct {
	// InitialInterval 首次轮询间隔
	InitialInterval time.Duration
	// MaxInterval 轮询间隔上限
	MaxInterval time.Duration
	// Multiplier 退避倍数
	Multiplier float64
	// MinQueryTimeout 单次状态查询的最短超时（timeout 为 0 时仍允许查询一次）
	MinQueryTimeout time.Duration
	// DefaultTimeout Run 使用的默认确认超时
	DefaultTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Commitment: client.CommitmentConfirmed,
		Confirmation: ConfirmationConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     4 * time.Second,
			Multiplier:      1.5,
			MinQueryTimeout: 500 * time.Millisecond,
			DefaultTimeout:  60 * time.Second,
		},
	}
}

// WithDefaults 返回补齐零值字段后的副本
func (c *Config) WithDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}

	out := *c
	if !out.Commitment.Valid() {
		out.Commitment = def.Commitment
	}
	conf := &out.Confirmation
	if conf.InitialInterval <= 0 {
		conf.InitialInterval = def.Confirmation.InitialInterval
	}
	if conf.MaxInterval <= 0 {
		conf.MaxInterval = def.Confirmation.MaxInterval
	}
	if conf.MaxInterval < conf.InitialInterval {
		conf.MaxInterval = conf.InitialInterval
	}
	if conf.Multiplier < 1 {
		conf.Multiplier = def.Confirmation.Multiplier
	}
	if conf.MinQueryTimeout <= 0 {
		conf.MinQueryTimeout = def.Confirmation.MinQueryTimeout
	}
	if conf.DefaultTimeout <= 0 {
		conf.DefaultTimeout = def.Confirmation.DefaultTimeout
	}
	return &out
}
