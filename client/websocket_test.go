package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: EndpointDevnet, want: "wss://api.devnet.solana.com"},
		{in: EndpointLocalnet, want: "ws://127.0.0.1:8900"},
		{in: "localhost:8899", want: "ws://localhost:8900"},
		{in: "wss://rpc.example.com/ws", want: "wss://rpc.example.com/ws"},
		{in: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebSocketEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// pubsubServer 收到 signatureSubscribe 后先应答订阅 ID，再按 notify 推送通知
func pubsubServer(t *testing.T, notify func(conn *websocket.Conn, subID uint64)) string {
	t.Helper()
	return pubsubServerWithUnsubscribe(t, notify, nil)
}

// pubsubServerWithUnsubscribe 在应答 signatureUnsubscribe 之前先调用 beforeAck
func pubsubServerWithUnsubscribe(t *testing.T, notify, beforeAck func(conn *websocket.Conn, subID uint64)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var subID uint64 = 41
		for {
			var req struct {
				Method string            `json:"method"`
				ID     uint64            `json:"id"`
				Params []json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			switch req.Method {
			case "signatureSubscribe":
				subID++
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": subID})
				if notify != nil {
					notify(conn, subID)
				}
			case "signatureUnsubscribe":
				if beforeAck != nil && len(req.Params) > 0 {
					var id uint64
					_ = json.Unmarshal(req.Params[0], &id)
					beforeAck(conn, id)
				}
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": true})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func notification(subID uint64, errJSON string) string {
	return `{"jsonrpc":"2.0","method":"signatureNotification","params":{"result":{"context":{"slot":77},"value":{"err":` +
		errJSON + `}},"subscription":` + strconv.FormatUint(subID, 10) + `}}`
}

func TestWebSocketClient_SubscribeSignature(t *testing.T) {
	endpoint := pubsubServer(t, func(conn *websocket.Conn, subID uint64) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(notification(subID, "null")))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewWebSocketClient(ctx, &Config{WSEndpoint: endpoint})
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.SubscribeSignature(ctx, solana.Signature{1})
	require.NoError(t, err)

	select {
	case note, ok := <-ch:
		require.True(t, ok)
		assert.Equal(t, uint64(77), note.Slot)
		assert.False(t, note.Failed())
	case <-ctx.Done():
		t.Fatal("no notification received")
	}

	_, ok := <-ch
	assert.False(t, ok, "channel closes after the single notification")
}

func TestWebSocketClient_FailedNotification(t *testing.T) {
	endpoint := pubsubServer(t, func(conn *websocket.Conn, subID uint64) {
		time.Sleep(20 * time.Millisecond)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(notification(subID, `{"InstructionError":[0,"Custom"]}`)))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewWebSocketClient(ctx, &Config{WSEndpoint: endpoint})
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.SubscribeSignature(ctx, solana.Signature{2})
	require.NoError(t, err)

	note := <-ch
	assert.True(t, note.Failed())
}

func TestWebSocketClient_CancelClosesChannel(t *testing.T) {
	endpoint := pubsubServer(t, nil)

	c, err := NewWebSocketClient(context.Background(), &Config{WSEndpoint: endpoint})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.SubscribeSignature(ctx, solana.Signature{3})
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWebSocketClient_CloseEndsSubscriptions(t *testing.T) {
	endpoint := pubsubServer(t, nil)

	c, err := NewWebSocketClient(context.Background(), &Config{WSEndpoint: endpoint})
	require.NoError(t, err)

	ch, err := c.SubscribeSignature(context.Background(), solana.Signature{4})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}

	_, err = c.SubscribeSignature(context.Background(), solana.Signature{5})
	assert.Error(t, err)
}

func TestWebSocketClient_SkipsUndecodableFrames(t *testing.T) {
	endpoint := pubsubServer(t, func(conn *websocket.Conn, subID uint64) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(notification(subID, "null")))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewWebSocketClient(ctx, &Config{WSEndpoint: endpoint})
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.SubscribeSignature(ctx, solana.Signature{6})
	require.NoError(t, err)

	select {
	case note, ok := <-ch:
		require.True(t, ok, "a bad frame must not end the subscription")
		assert.Equal(t, uint64(77), note.Slot)
	case <-ctx.Done():
		t.Fatal("no notification received")
	}

	// 连接仍可用
	_, err = c.SubscribeSignature(ctx, solana.Signature{7})
	assert.NoError(t, err)
}

func TestWebSocketClient_ReadFailureReleasesConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	c, err := NewWebSocketClient(context.Background(), &Config{WSEndpoint: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop after the server went away")
	}

	// 底层连接已关闭
	assert.Error(t, c.conn.UnderlyingConn().SetDeadline(time.Now()))

	first := c.Close()
	assert.Equal(t, first, c.Close(), "Close is idempotent")

	_, err = c.SubscribeSignature(context.Background(), solana.Signature{8})
	assert.Error(t, err)
}

func TestWebSocketClient_EarlyNotificationsBounded(t *testing.T) {
	c, err := NewWebSocketClient(context.Background(), &Config{WSEndpoint: pubsubServer(t, nil)})
	require.NoError(t, err)
	defer c.Close()

	for id := uint64(1); id <= maxEarlyNotifications+10; id++ {
		c.deliver(1000+id, SignatureNotification{Slot: id})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.early, maxEarlyNotifications)
	assert.Len(t, c.earlyOrder, maxEarlyNotifications)
	assert.NotContains(t, c.early, uint64(1001), "oldest entry evicted")
	assert.Contains(t, c.early, uint64(1000+maxEarlyNotifications+10))
}

func TestWebSocketClient_DropsNotificationRacingUnsubscribe(t *testing.T) {
	endpoint := pubsubServerWithUnsubscribe(t, nil, func(conn *websocket.Conn, subID uint64) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(notification(subID, "null")))
	})

	c, err := NewWebSocketClient(context.Background(), &Config{WSEndpoint: endpoint})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.SubscribeSignature(ctx, solana.Signature{9})
	require.NoError(t, err)
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.unsubscribed) == 0
	}, 2*time.Second, 5*time.Millisecond, "unsubscribe acknowledged")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.early, "notification for a cancelled subscription is dropped")
}
