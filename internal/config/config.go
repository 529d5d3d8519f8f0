package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 1780
	defaultMaxConnections  = 2000
	defaultRoomTTL         = 60 // 分钟
	defaultCleanupInterval = 60 // 秒
	defaultSurvivalBonus   = 10
	defaultCommonerWin     = 10
	defaultUndercoverWin   = 25
	defaultMessagesPerSec  = 10
	defaultMessageBurst    = 20
	defaultShutdownTimeout = 10 // 秒
	defaultLogLevel        = "info"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket/HTTP 服务器配置
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	MaxConnections  int    `yaml:"max_connections"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // 优雅关闭等待（秒）

	// 可信反向代理（IP 或 CIDR），只有来自这些地址的 X-Forwarded-For 才会被采信
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// RedisConfig Redis 配置，Addr 为空时不启用快照和排行榜
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	RoomTTL         int           `yaml:"room_ttl"`         // 房间无活动过期时间（分钟）
	CleanupInterval int           `yaml:"cleanup_interval"` // 过期房间扫描间隔（秒）
	Scoring         ScoringConfig `yaml:"scoring"`
}

// ScoringConfig 计分常量
type ScoringConfig struct {
	SurvivalBonus      int `yaml:"survival_bonus"`       // 卧底每存活一轮
	CommonerWinBonus   int `yaml:"commoner_win_bonus"`   // 平民获胜时每个存活平民
	UndercoverWinBonus int `yaml:"undercover_win_bonus"` // 卧底获胜时每个卧底
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug/info/warn/error
}

// RoomTTLDuration 返回房间过期时长
func (c *GameConfig) RoomTTLDuration() time.Duration {
	return time.Duration(c.RoomTTL) * time.Minute
}

// CleanupIntervalDuration 返回过期扫描间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// ShutdownTimeoutDuration 返回优雅关闭等待时长
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// Load 加载配置文件，随后应用默认值和环境变量
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置（同样应用环境变量）
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// LoadDotEnv 加载 .env 文件，文件不存在时忽略
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Game.RoomTTL == 0 {
		c.Game.RoomTTL = defaultRoomTTL
	}
	if c.Game.CleanupInterval == 0 {
		c.Game.CleanupInterval = defaultCleanupInterval
	}
	if c.Game.Scoring == (ScoringConfig{}) {
		c.Game.Scoring = ScoringConfig{
			SurvivalBonus:      defaultSurvivalBonus,
			CommonerWinBonus:   defaultCommonerWin,
			UndercoverWinBonus: defaultUndercoverWin,
		}
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMessagesPerSec
	}
	if c.Security.MessageLimit.Burst == 0 {
		c.Security.MessageLimit.Burst = defaultMessageBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, ok := envInt("SERVER_PORT"); ok {
		c.Server.Port = v
	}
	// 兼容常见的 PORT 变量
	if v, ok := envInt("PORT"); ok {
		c.Server.Port = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v, ok := envInt("GAME_ROOM_TTL"); ok {
		c.Game.RoomTTL = v
	}
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		c.Security.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("SERVER_TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
