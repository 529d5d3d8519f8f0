package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
)

// maxIdentityLength 客户端自带身份的最大长度
const maxIdentityLength = 64

// handleWebSocket 处理 WebSocket 连接
// 客户端通过 ?clientId= 携带身份以便断线重连，缺省时分配新的 uuid
// 客户端 IP 由 gin 解析，代理头仅在来自可信代理时生效
func (s *Server) handleWebSocket(c *gin.Context) {
	w, r := c.Writer, c.Request
	clientIP := c.ClientIP()

	if s.IsShuttingDown() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
	default:
		zap.L().Warn("🚫 达到最大连接数限制", zap.Int("max", cap(s.semaphore)), zap.String("ip", clientIP))
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	id := r.URL.Query().Get("clientId")
	if id == "" || len(id) > maxIdentityLength {
		id = uuid.New().String()
	}

	// 来源验证失败时 Upgrade 会直接回复 403
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		zap.L().Warn("WebSocket 升级失败", zap.String("ip", clientIP), zap.String("origin", r.Header.Get("Origin")), zap.Error(err))
		return
	}

	client := NewClient(s, conn, id)
	client.IP = clientIP
	if r.URL.Query().Get("format") == "binary" {
		client.format.Store(int32(codec.FormatBinary))
	}
	s.registerClient(client)

	zap.L().Info("✅ 玩家已连接", zap.String("player", id), zap.String("ip", clientIP))

	go client.WritePump()
	s.handler.OnConnect(client)
	go client.ReadPump()
}

// registerClient 注册客户端，同一身份的旧连接会被替换
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	prev := s.clients[client.ID]
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	if prev != nil {
		zap.L().Info("♻️ 同一身份重复连接，关闭旧连接", zap.String("player", client.ID))
		prev.Close()
	}
}

// unregisterClient 注销客户端
// 断线不影响对局，身份保留在房间中等待重连
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	current, ok := s.clients[client.ID]
	if ok && current == client {
		delete(s.clients, client.ID)
	}
	s.clientsMu.Unlock()

	if ok && current == client {
		zap.L().Info("❌ 玩家已断开", zap.String("player", client.ID))
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// SendToPlayers 向指定玩家发送消息，不在线的玩家忽略
func (s *Server) SendToPlayers(ids []string, msg *protocol.Message) {
	s.clientsMu.RLock()
	targets := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range targets {
		c.SendMessage(msg)
	}
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range targets {
		c.SendMessage(msg)
	}
}
