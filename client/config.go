package client

// 公共节点端点
const (
	EndpointDevnet   = "https://api.devnet.solana.com"
	EndpointTestnet  = "https://api.testnet.solana.com"
	EndpointMainnet  = "https://api.mainnet-beta.solana.com"
	EndpointLocalnet = "http://127.0.0.1:8899"
)

// Config 客户端配置
type Config struct {
	// Endpoint 节点 JSON-RPC 端点地址
	Endpoint string

	// WSEndpoint WebSocket 端点（为空时由 Endpoint 推导）
	WSEndpoint string

	// Protocol 协议类型
	Protocol Protocol

	// Timeout 单次请求超时时间（秒）
	Timeout int

	// Commitment 查询与预检使用的确认级别
	Commitment Commitment

	// RateLimit 每秒最多请求数（0 表示不限流）
	RateLimit float64

	// RateBurst 限流突发容量
	RateBurst int

	// Retry 只读请求的重试配置（nil 使用默认配置）
	// 广播与空投请求永远不会自动重试
	Retry *RetryConfig

	// 调试模式
	Debug bool

	// 日志器（可选）
	Logger Logger
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   EndpointDevnet,
		Protocol:   ProtocolHTTP,
		Timeout:    30,
		Commitment: CommitmentConfirmed,
		// 公共 devnet 节点限流约为 100 req / 10s
		RateLimit: 8,
		RateBurst: 4,
		Debug:     false,
	}
}

func (c *Config) commitment() Commitment {
	if c.Commitment.Valid() {
		return c.Commitment
	}
	return CommitmentConfirmed
}
