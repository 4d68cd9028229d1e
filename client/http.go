package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/time/rate"
)

// nonIdempotentMethods 不允许自动重试的方法
//
// 重复广播可能导致重复提交，重试策略只能由调用方在确认状态后决定。
var nonIdempotentMethods = map[string]bool{
	"sendTransaction": true,
	"requestAirdrop":  true,
}

// HTTPClient Solana JSON-RPC over HTTP 客户端
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	logger     Logger
	debug      bool
	nextID     atomic.Uint64
	retry      *RetryConfig
	limiter    *rate.Limiter
	commitment Commitment
}

var _ Connection = (*HTTPClient)(nil)

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(config *Config) (*HTTPClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = NewNopLogger()
	}

	retryConfig := config.Retry
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
		if config.Debug {
			retryConfig.OnRetry = func(attempt int, err error) {
				logger.Warn("Retrying request", "attempt", attempt, "error", err)
			}
		}
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &HTTPClient{
		endpoint:   config.Endpoint,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		debug:      config.Debug,
		retry:      retryConfig,
		limiter:    limiter,
		commitment: config.commitment(),
	}, nil
}

// Call 调用 JSON-RPC 方法，并将 result 解码到 out
func (c *HTTPClient) Call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	if c.debug {
		c.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	var resp *jsonRPCResponse
	send := func() error {
		r, sendErr := c.post(ctx, reqBody)
		if sendErr != nil {
			return sendErr
		}
		resp = r
		return nil
	}

	if c.retry != nil && !nonIdempotentMethods[method] {
		err = withRetry(ctx, send, c.retry)
	} else {
		err = send()
	}
	if err != nil {
		return err
	}

	if resp.Error != nil {
		return NewRPCError(resp.Error.Code, resp.Error.Message, resp.Error.Data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return NewInvalidResponseError(fmt.Sprintf("decode %s result", method), err)
	}
	return nil
}

// post 发送一次 HTTP 请求
func (c *HTTPClient) post(ctx context.Context, body []byte) (*jsonRPCResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewTimeoutError(err)
		}
	}

	// 每次重试都创建新的请求（因为 Body 只能读取一次）
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewNetworkError(err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("read response failed: %w", err))
	}

	if c.debug {
		c.logger.Debug("JSON-RPC response", "status", httpResp.StatusCode, "body", string(respBody))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, NewHTTPStatusError(httpResp.StatusCode, string(respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return nil, NewInvalidResponseError("unmarshal response failed", err)
	}
	return &jsonResp, nil
}

// GetLatestBlockhash 获取最新 blockhash
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error) {
	var result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	params := []interface{}{map[string]interface{}{"commitment": c.commitment}}
	if err := c.Call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}

	hash, err := solana.HashFromBase58(result.Value.Blockhash)
	if err != nil {
		return nil, NewInvalidResponseError("decode blockhash", err)
	}

	return &LatestBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// GetBalance 查询余额
func (c *HTTPClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []interface{}{account.String(), map[string]interface{}{"commitment": c.commitment}}
	if err := c.Call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// SendTransaction 发送已签名的序列化交易（base64 编码）
func (c *HTTPClient) SendTransaction(ctx context.Context, rawTx []byte) (solana.Signature, error) {
	var result string
	params := []interface{}{
		base64.StdEncoding.EncodeToString(rawTx),
		map[string]interface{}{
			"encoding":            "base64",
			"preflightCommitment": c.commitment,
		},
	}
	if err := c.Call(ctx, "sendTransaction", params, &result); err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, NewInvalidResponseError("decode transaction signature", err)
	}
	return sig, nil
}

// GetSignatureStatus 查询交易状态
func (c *HTTPClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	var result struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []interface{}{
		[]string{sig.String()},
		map[string]interface{}{"searchTransactionHistory": true},
	}
	if err := c.Call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	if len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}

// RequestAirdrop 请求空投
func (c *HTTPClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	var result string
	params := []interface{}{
		account.String(),
		lamports,
		map[string]interface{}{"commitment": c.commitment},
	}
	if err := c.Call(ctx, "requestAirdrop", params, &result); err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, NewInvalidResponseError("decode airdrop signature", err)
	}
	return sig, nil
}

// Close 关闭连接（HTTP客户端无需特殊处理）
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// jsonRPCRequest JSON-RPC请求结构
type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonRPCResponse JSON-RPC响应结构
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// jsonRPCError JSON-RPC错误结构
type jsonRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
