package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialTestHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d, got %d", want, hub.ClientCount())
}

func TestHub_EmitReachesAllClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c1 := dialTestHub(t, srv)
	defer c1.Close()
	c2 := dialTestHub(t, srv)
	defer c2.Close()
	waitForClientCount(t, hub, 2)

	payload := map[string]string{"pond_id": "pond-1", "message": "Water level low"}
	require.NoError(t, hub.Emit(EventSensorAlert, payload))

	for _, conn := range []*websocket.Conn{c1, c2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, EventSensorAlert, env.Event)
		assert.NotZero(t, env.Timestamp)

		data, ok := env.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "pond-1", data["pond_id"])
	}
}

func TestHub_EmitWithNoClients(t *testing.T) {
	hub := NewHub(zap.NewNop())

	// 没有连接时广播是空操作，不报错
	assert.NoError(t, hub.Emit(EventFeedingReminder, map[string]string{"feeding_id": "feed-1"}))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StalledClientDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	// 这个客户端从不读取：TCP 缓冲写满后它的发送队列会被堵死
	stalled := dialTestHub(t, srv)
	defer stalled.Close()
	waitForClientCount(t, hub, 1)

	payload := map[string]string{"blob": strings.Repeat("x", 256*1024)}

	start := time.Now()
	for i := 0; i < 2*clientSendBuffer; i++ {
		require.NoError(t, hub.Emit(EventSensorAlert, payload))
	}
	elapsed := time.Since(start)

	// 广播从不等待任何连接的写完成
	assert.Less(t, elapsed, 2*time.Second)

	// 队列写满的客户端被移除，而不是拖住后续广播
	waitForClientCount(t, hub, 0)

	// 新的正常客户端不受影响
	healthy := dialTestHub(t, srv)
	defer healthy.Close()
	waitForClientCount(t, hub, 1)

	require.NoError(t, hub.Emit(EventFeedingReminder, map[string]string{"feeding_id": "feed-1"}))
	healthy.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := healthy.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventFeedingReminder, env.Event)
}

func TestHub_DisconnectedClientIsRemoved(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialTestHub(t, srv)
	waitForClientCount(t, hub, 1)

	conn.Close()
	waitForClientCount(t, hub, 0)

	// 连接移除后广播依旧正常
	assert.NoError(t, hub.Emit(EventSensorAlert, nil))
}
