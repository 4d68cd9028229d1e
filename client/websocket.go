package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
)

const (
	// maxEarlyNotifications 未登记订阅的通知最多缓存条数
	maxEarlyNotifications = 64
	unsubscribeTimeout    = 5 * time.Second
	closeWriteTimeout     = time.Second
)

// WebSocketClient Solana PubSub 客户端
//
// 只实现签名订阅，用于在交易落块时提前唤醒确认轮询。
type WebSocketClient struct {
	endpoint   string
	conn       *websocket.Conn
	writeMu    sync.Mutex
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
	nextID     atomic.Uint64
	commitment Commitment
	logger     Logger
	done       chan struct{}

	mu       sync.Mutex
	requests map[uint64]chan *jsonRPCResponse
	subs     map[uint64]*signatureSub
	// 订阅 ID 登记前就到达的通知，按到达顺序淘汰
	early      map[uint64]SignatureNotification
	earlyOrder []uint64
	// 已取消、等待节点确认注销的订阅，其通知直接丢弃
	unsubscribed map[uint64]struct{}
}

type signatureSub struct {
	ch   chan SignatureNotification
	stop chan struct{}
}

var _ SignatureSubscriber = (*WebSocketClient)(nil)

// wsMessage 读取循环收到的消息（响应或通知）
type wsMessage struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *jsonRPCError   `json:"error,omitempty"`
	Method string          `json:"method,omitempty"`
	Params *struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Err json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
		Subscription uint64 `json:"subscription"`
	} `json:"params,omitempty"`
}

// NewWebSocketClient 创建 WebSocket 客户端
func NewWebSocketClient(ctx context.Context, config *Config) (*WebSocketClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := config.WSEndpoint
	if endpoint == "" {
		derived, err := WebSocketEndpoint(config.Endpoint)
		if err != nil {
			return nil, err
		}
		endpoint = derived
	}

	logger := config.Logger
	if logger == nil {
		logger = NewNopLogger()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket %s: %w", endpoint, err))
	}

	c := &WebSocketClient{
		endpoint:   endpoint,
		conn:       conn,
		commitment: config.commitment(),
		logger:     logger,
		done:       make(chan struct{}),
		requests:   make(map[uint64]chan *jsonRPCResponse),
		subs:       make(map[uint64]*signatureSub),
		early:      make(map[uint64]SignatureNotification),

		unsubscribed: make(map[uint64]struct{}),
	}

	// 启动消息读取循环
	go c.readLoop()

	return c, nil
}

// WebSocketEndpoint 由 HTTP 端点推导 PubSub 端点
//
// http(s) 换成 ws(s)；显式端口加一（本地验证节点 8899 对应 8900）。
func WebSocketEndpoint(httpEndpoint string) (string, error) {
	if !strings.Contains(httpEndpoint, "://") {
		httpEndpoint = "http://" + httpEndpoint
	}
	u, err := url.Parse(httpEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported endpoint scheme: %s", u.Scheme)
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return "", fmt.Errorf("invalid endpoint port %q: %w", port, err)
		}
		u.Host = u.Hostname() + ":" + strconv.Itoa(n+1)
	}
	return u.String(), nil
}

// readLoop 消息读取循环
func (c *WebSocketClient) readLoop() {
	defer c.shutdown()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("WebSocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Skipping undecodable WebSocket frame", "endpoint", c.endpoint, "error", err)
			continue
		}

		switch {
		case msg.ID != nil:
			c.mu.Lock()
			ch, ok := c.requests[*msg.ID]
			delete(c.requests, *msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &jsonRPCResponse{Result: msg.Result, Error: msg.Error, ID: *msg.ID}
			}
		case msg.Method == "signatureNotification" && msg.Params != nil:
			note := SignatureNotification{
				Slot: msg.Params.Result.Context.Slot,
				Err:  msg.Params.Result.Value.Err,
			}
			c.deliver(msg.Params.Subscription, note)
		}
	}
}

// deliver 投递签名通知；签名订阅在首次通知后由节点自动注销
func (c *WebSocketClient) deliver(subID uint64, note SignatureNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, gone := c.unsubscribed[subID]; gone {
		return
	}
	sub, ok := c.subs[subID]
	if !ok {
		c.remember(subID, note)
		return
	}
	delete(c.subs, subID)
	sub.ch <- note
	close(sub.ch)
	close(sub.stop)
}

// remember 缓存尚未登记订阅的通知，超出上限时淘汰最早的一条（调用方持有 mu）
func (c *WebSocketClient) remember(subID uint64, note SignatureNotification) {
	c.early[subID] = note
	c.earlyOrder = append(c.earlyOrder, subID)
	if len(c.earlyOrder) > maxEarlyNotifications {
		delete(c.early, c.earlyOrder[0])
		c.earlyOrder = c.earlyOrder[1:]
	}
}

// shutdown 读取循环退出后释放连接，并关闭所有挂起的请求与订阅
func (c *WebSocketClient) shutdown() {
	_ = c.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	close(c.done)
	for id, ch := range c.requests {
		delete(c.requests, id)
		close(ch)
	}
	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub.ch)
		close(sub.stop)
	}
}

// call 发送请求并等待响应
func (c *WebSocketClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, NewNetworkError(fmt.Errorf("websocket client is closed"))
	}

	reqID := c.nextID.Add(1)
	respCh := make(chan *jsonRPCResponse, 1)

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return nil, NewNetworkError(fmt.Errorf("websocket client is closed"))
	default:
	}
	c.requests[reqID] = respCh
	c.mu.Unlock()

	if err := c.write(&jsonRPCRequest{JSONRPC: "2.0", Method: method, Params: params, ID: reqID}); err != nil {
		c.mu.Lock()
		delete(c.requests, reqID)
		c.mu.Unlock()
		return nil, NewNetworkError(fmt.Errorf("write request: %w", err))
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, NewNetworkError(fmt.Errorf("websocket closed while waiting for %s", method))
		}
		if resp.Error != nil {
			return nil, NewRPCError(resp.Error.Code, resp.Error.Message, resp.Error.Data)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.requests, reqID)
		c.mu.Unlock()
		return nil, NewTimeoutError(ctx.Err())
	}
}

func (c *WebSocketClient) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// SubscribeSignature 订阅交易签名
//
// 返回的通道最多收到一条通知，随后关闭；ctx 取消或连接断开时直接关闭。
func (c *WebSocketClient) SubscribeSignature(ctx context.Context, sig solana.Signature) (<-chan SignatureNotification, error) {
	params := []interface{}{
		sig.String(),
		map[string]interface{}{"commitment": c.commitment},
	}
	raw, err := c.call(ctx, "signatureSubscribe", params)
	if err != nil {
		return nil, err
	}

	var subID uint64
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, NewInvalidResponseError("decode subscription id", err)
	}

	sub := &signatureSub{
		ch:   make(chan SignatureNotification, 1),
		stop: make(chan struct{}),
	}

	c.mu.Lock()
	if note, ok := c.early[subID]; ok {
		delete(c.early, subID)
		c.mu.Unlock()
		sub.ch <- note
		close(sub.ch)
		return sub.ch, nil
	}
	select {
	case <-c.done:
		c.mu.Unlock()
		close(sub.ch)
		return sub.ch, nil
	default:
	}
	c.subs[subID] = sub
	c.mu.Unlock()

	go func() {
		select {
		case <-sub.stop:
			return
		case <-ctx.Done():
		}

		c.mu.Lock()
		_, active := c.subs[subID]
		if active {
			delete(c.subs, subID)
			c.unsubscribed[subID] = struct{}{}
			close(sub.ch)
			close(sub.stop)
		}
		c.mu.Unlock()
		if !active {
			return
		}

		// 同一连接上消息有序：注销应答之后不会再有该订阅的通知
		uctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
		if _, err := c.call(uctx, "signatureUnsubscribe", []interface{}{subID}); err != nil {
			c.logger.Debug("Unsubscribe failed", "subscription", subID, "error", err)
		}
		cancel()

		c.mu.Lock()
		delete(c.unsubscribed, subID)
		c.mu.Unlock()
	}()

	return sub.ch, nil
}

// Close 关闭连接，可重复调用
func (c *WebSocketClient) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
