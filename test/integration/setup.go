package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
)

const (
	// EnvNodeEndpoint 节点端点环境变量，未设置时跳过集成测试
	EnvNodeEndpoint = "SOLWALLET_INTEGRATION_RPC"
	// DefaultTimeout 默认超时时间
	DefaultTimeout = 30 * time.Second
	// TransactionConfirmTimeout 交易确认超时时间
	TransactionConfirmTimeout = 60 * time.Second
)

// TestConfig 测试配置
type TestConfig struct {
	NodeEndpoint string
	Timeout      time.Duration
}

// DefaultTestConfig 返回默认测试配置
//
// 本地节点启动方式：solana-test-validator --reset
// 然后设置 SOLWALLET_INTEGRATION_RPC=http://127.0.0.1:8899
func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		NodeEndpoint: os.Getenv(EnvNodeEndpoint),
		Timeout:      DefaultTimeout,
	}
}

// SetupTestClient 设置测试客户端（导出函数）
//
// **功能**：
// - 创建 HTTP 客户端连接到 Solana 节点
// - 验证节点是否运行（通过调用 getLatestBlockhash）
// - 未配置节点时跳过测试
func SetupTestClient(t *testing.T) client.Connection {
	return setupTestClientWithConfig(t, DefaultTestConfig())
}

// setupTestClientWithConfig 使用配置设置测试客户端
func setupTestClientWithConfig(t *testing.T, cfg *TestConfig) client.Connection {
	t.Helper()
	if cfg == nil {
		cfg = DefaultTestConfig()
	}
	if cfg.NodeEndpoint == "" {
		t.Skipf("%s not set, skipping integration test", EnvNodeEndpoint)
	}

	clientCfg := client.DefaultConfig()
	clientCfg.Endpoint = cfg.NodeEndpoint
	clientCfg.Timeout = int(cfg.Timeout.Seconds())
	clientCfg.RateLimit = 0

	c, err := client.NewClient(clientCfg)
	require.NoError(t, err, "创建客户端失败")

	// 验证节点是否运行
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = c.GetLatestBlockhash(ctx)
	require.NoError(t, err, "节点未运行，请先启动节点: %s", cfg.NodeEndpoint)

	return c
}

// TeardownTestClient 清理测试客户端
func TeardownTestClient(t *testing.T, c client.Connection) {
	if c != nil {
		if err := c.Close(); err != nil {
			t.Logf("关闭客户端时出现警告: %v", err)
		}
	}
}

// CreateTestWallet 创建随机测试钱包
func CreateTestWallet(t *testing.T) *wallet.Keypair {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err, "生成测试私钥失败")
	kp, err := wallet.NewKeypair(priv)
	require.NoError(t, err, "创建测试钱包失败")
	return kp
}
