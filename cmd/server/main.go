package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/config"
	"github.com/palemoky/undercover/internal/logger"
	"github.com/palemoky/undercover/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "加载 .env 失败: %v\n", err)
	}

	// 加载配置
	cfg, err := config.Load(*configPath)
	loadErr := err
	if err != nil {
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if loadErr != nil {
		zap.L().Warn("加载配置文件失败，使用默认配置", zap.String("path", *configPath), zap.Error(loadErr))
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.NewServer(cfg)
	if err != nil {
		zap.L().Fatal("创建服务器失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("🎮 谁是卧底服务器启动中...")
		errCh <- srv.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zap.L().Fatal("服务器启动失败", zap.Error(err))
		}
	case <-ctx.Done():
		zap.L().Info("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Server.ShutdownTimeoutDuration())
	}
}
