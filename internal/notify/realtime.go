package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// 单连接发送队列长度，写满说明客户端已停止消费
	clientSendBuffer = 64
	// 单次写超时，卡住的连接由写循环自行出清
	writeTimeout = 5 * time.Second
)

// Envelope 实时广播消息信封
type Envelope struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// client 一个已连接的客户端：连接 + 带缓冲的发送队列
// 队列由专属写循环消费，广播方从不直接触碰连接
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 实时广播中心（WebSocket）
// 广播只向各连接的发送队列做非阻塞投递：队列满的连接视为停止消费，
// 当场移除。慢客户端永远拖不住扫描循环
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub 创建广播中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 仪表盘部署在局域网内，不做来源限制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWS WebSocket 升级入口
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade websocket connection",
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("client_count", count),
	)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Emit 向所有已连接客户端广播一条事件
// fire-and-forget：投递到各发送队列后立即返回，绝不等待任何连接的写完成
func (h *Hub) Emit(event string, payload any) error {
	data, err := json.Marshal(Envelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast envelope: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// 发送队列已满：客户端不再消费，移除并让写循环收尾
			h.logger.Debug("Dropping stalled websocket connection",
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
			)
			h.removeLocked(c)
		}
	}

	return nil
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// writeLoop 消费发送队列，逐条带超时地写出
// 队列被关闭（客户端被移除）或写失败时关闭底层连接退出
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("Websocket write failed, dropping connection",
				zap.Error(err),
			)
			h.remove(c)
			return
		}
	}
}

// readLoop 只用于感知连接关闭，入站消息全部丢弃
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove 注销客户端（幂等）
// 关闭发送队列即通知写循环收尾；连接由写循环负责关闭
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
