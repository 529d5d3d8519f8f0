package logger

import (
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init 按级别初始化全局日志器；debug 级别使用开发模式输出
func Init(level string) error {
	var cfg zap.Config
	if strings.EqualFold(level, "debug") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level.SetLevel(parseLevel(level))

	lgr, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	zap.ReplaceGlobals(lgr)
	zap.L().Info("logger initialized", zap.String("level", cfg.Level.String()))
	return nil
}

// Sync 刷新缓冲
func Sync() {
	_ = zap.L().Sync()
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	zap.L().Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
