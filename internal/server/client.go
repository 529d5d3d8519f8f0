package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/palemoky/undercover/internal/logger"
	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 超速次数达到该值后断开连接
	maxRateWarnings = 5
)

// frame 待写出的一帧
type frame struct {
	kind int // websocket.TextMessage / websocket.BinaryMessage
	data []byte
}

// Client 代表一个连接的玩家
type Client struct {
	ID string // 玩家身份，断线重连时保持不变
	IP string

	server  *Server
	conn    *websocket.Conn
	send    chan frame
	limiter *rate.Limiter
	format  atomic.Int32 // 最近一次请求使用的编码，回复沿用

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, id string) *Client {
	limit := s.config.Security.MessageLimit
	return &Client{
		ID:      id,
		server:  s,
		conn:    conn,
		send:    make(chan frame, 256),
		limiter: rate.NewLimiter(rate.Limit(limit.MaxPerSecond), limit.Burst),
	}
}

// GetID 获取玩家身份
func (c *Client) GetID() string {
	return c.ID
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.server.unregisterClient(c)
		c.Close()
		_ = c.conn.Close()
		<-c.server.semaphore
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	warnings := 0
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("读取错误", zap.String("client", c.ID), zap.Error(err))
			}
			return
		}

		format := codec.FormatJSON
		if kind == websocket.BinaryMessage {
			format = codec.FormatBinary
		}
		c.format.Store(int32(format))

		// 消息速率限制检查
		if !c.limiter.Allow() {
			warnings++
			zap.L().Warn("⚠️ 客户端消息过于频繁", zap.String("client", c.ID), zap.String("ip", c.IP), zap.Int("warnings", warnings))
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if warnings >= maxRateWarnings {
				zap.L().Warn("🚫 客户端因多次超速被断开连接", zap.String("client", c.ID))
				return
			}
			continue
		}

		msg, err := codec.Decode(format, data)
		if err != nil {
			zap.L().Debug("消息解析错误", zap.String("client", c.ID), zap.Error(err))
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，编码沿用客户端最近一次请求的格式
func (c *Client) SendMessage(msg *protocol.Message) {
	format := codec.Format(c.format.Load())
	data, err := codec.Encode(format, msg)
	if err != nil {
		zap.L().Error("消息编码错误", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	kind := websocket.TextMessage
	if format == codec.FormatBinary {
		kind = websocket.BinaryMessage
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	var full bool
	select {
	case c.send <- frame{kind: kind, data: data}:
	default:
		full = true
	}
	c.mu.RUnlock()

	if full {
		// 发送缓冲区已满，关闭连接
		zap.L().Warn("客户端发送缓冲区已满", zap.String("client", c.ID))
		c.Close()
	}
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
