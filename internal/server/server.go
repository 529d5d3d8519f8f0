package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/config"
	"github.com/palemoky/undercover/internal/game/room"
	"github.com/palemoky/undercover/internal/server/api"
	"github.com/palemoky/undercover/internal/server/handler"
	"github.com/palemoky/undercover/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client // 未配置 Redis 时为 nil
	leaderboard *storage.LeaderboardManager
	rooms       *room.RoomManager
	handler     *handler.Handler
	upgrader    websocket.Upgrader
	engine      *gin.Engine
	httpServer  *http.Server

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 连接控制
	semaphore chan struct{}

	shuttingDown atomic.Bool
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:    cfg,
		clients:   make(map[string]*Client),
		semaphore: make(chan struct{}, cfg.Server.MaxConnections),
	}

	scoring := cfg.Game.Scoring
	opts := room.Options{
		Scoring: room.Scoring{
			SurvivalBonus:      scoring.SurvivalBonus,
			CommonerWinBonus:   scoring.CommonerWinBonus,
			UndercoverWinBonus: scoring.UndercoverWinBonus,
		},
		RoomTTL: cfg.Game.RoomTTLDuration(),
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		s.redis = rdb
		s.leaderboard = storage.NewLeaderboardManager(rdb)
		opts.Snapshots = storage.NewRedisStore(rdb)
		opts.Results = s.leaderboard
	} else {
		zap.L().Warn("⚠️ 未配置 Redis，房间快照和排行榜已禁用")
	}

	s.rooms = room.NewRoomManager(opts)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server: s,
		Rooms:  s.rooms,
	})
	s.rooms.SetUpdateHandler(s.handler.OnRoomUpdate)
	s.rooms.SetEvictHandler(s.handler.OnRoomEvicted)

	origins := NewOriginChecker(cfg.Security.AllowedOrigins)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.Check,
	}

	engine, err := s.newEngine()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zap.L().Info("🔒 安全配置",
		zap.Int("messages_per_second", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("message_burst", cfg.Security.MessageLimit.Burst),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Strings("allowed_origins", cfg.Security.AllowedOrigins),
		zap.Strings("trusted_proxies", cfg.Server.TrustedProxies))

	return s, nil
}

// newEngine 组装 HTTP 路由：/ws 与只读 API
func (s *Server) newEngine() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	// 未配置代理时只使用连接的对端地址
	if err := engine.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("可信代理配置无效: %w", err)
	}

	deps := api.Deps{
		Rooms:   s.rooms,
		Online:  s.GetOnlineCount,
		Origins: s.config.Security.AllowedOrigins,
	}
	// 避免把 nil 指针包装成非 nil 接口
	if s.leaderboard != nil {
		deps.Leaderboard = s.leaderboard
	}
	api.RegisterRoutes(engine, deps)

	engine.GET("/ws", s.handleWebSocket)
	return engine, nil
}

// Handler 返回 HTTP 处理器（测试使用）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Rooms 返回房间管理器
func (s *Server) Rooms() *room.RoomManager {
	return s.rooms
}

// Run 启动服务器并阻塞，ctx 取消时停止过期房间扫描
func (s *Server) Run(ctx context.Context) error {
	s.rooms.StartCleanup(ctx, s.config.Game.CleanupIntervalDuration())
	go s.monitorStats(ctx)

	zap.L().Info("🚀 服务器启动", zap.String("addr", "ws://"+s.httpServer.Addr+"/ws"), zap.Int("cpus", runtime.NumCPU()))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
