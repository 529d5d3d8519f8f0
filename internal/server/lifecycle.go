package server

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/protocol"
	"github.com/palemoky/undercover/internal/protocol/codec"
)

// shutdownCheckInterval 等待对局结束时的轮询间隔
const shutdownCheckInterval = 500 * time.Millisecond

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		zap.L().Info("📊 [监控]",
			zap.Int("online", s.GetOnlineCount()),
			zap.Int("rooms", len(s.rooms.ListRooms())),
			zap.Int("active_games", s.rooms.GetActiveGamesCount()),
			zap.Int("goroutines", runtime.NumGoroutine()),
			zap.Int("connections", len(s.semaphore)),
			zap.Float64("mem_mb", float64(m.Alloc)/1024/1024))
	}
}

// IsShuttingDown 是否正在关闭
func (s *Server) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}

// GracefulShutdown 优雅关闭服务器
// 停止创建与加入房间，等待进行中的对局结束，超时后强制关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}

	s.Broadcast(codec.NewErrorMessage(protocol.ErrCodeServerShutdown))
	zap.L().Info("🔧 进入关闭流程：停止房间创建", zap.Duration("timeout", timeout))

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.rooms.GetActiveGamesCount()
		if active == 0 {
			zap.L().Info("✅ 所有对局已结束")
			break
		}
		zap.L().Info("⏳ 等待对局结束...", zap.Int("active_games", active))
		<-ticker.C
	}

	if active := s.rooms.GetActiveGamesCount(); active > 0 {
		zap.L().Warn("⚠️ 超时，仍有对局进行中，强制关闭", zap.Int("active_games", active))
	}

	s.Shutdown()
}

// Shutdown 关闭 HTTP 服务、所有连接与 Redis
func (s *Server) Shutdown() {
	s.shuttingDown.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		zap.L().Warn("HTTP 服务关闭失败", zap.Error(err))
	}

	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.RUnlock()

	if s.redis != nil {
		_ = s.redis.Close()
	}

	zap.L().Info("服务器已关闭")
}
