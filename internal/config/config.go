package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Room   RoomConfig   `yaml:"room"`
	Sync   SyncConfig   `yaml:"sync"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig 身份验证配置
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl"` // 令牌有效期（分钟），仅本地签发时使用
}

// RoomConfig 房间配置
type RoomConfig struct {
	IdleTimeout   int            `yaml:"idle_timeout"`   // 空房间保留时间（秒）
	WaitTimeout   int            `yaml:"wait_timeout"`   // 等待状态房间超时（分钟）
	Countdown     int            `yaml:"countdown"`      // 开局倒计时（秒）
	MaxSpectators int            `yaml:"max_spectators"` // 每个房间观战席上限
	Grace         map[string]int `yaml:"grace"`          // 各游戏类型的重连宽限期（秒）
	GraceDefault  int            `yaml:"grace_default"`  // 未配置时的重连宽限期（秒）
}

// SyncConfig 模拟与广播频率配置
type SyncConfig struct {
	SimulationHz int `yaml:"simulation_hz"` // 连续模拟频率
	BroadcastHz  int `yaml:"broadcast_hz"`  // 增量广播频率（不高于模拟频率）
}

// TokenTTLDuration 返回令牌有效期
func (c *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(c.TokenTTL) * time.Minute
}

// IdleTimeoutDuration 返回空房间保留时长
func (c *RoomConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(c.IdleTimeout) * time.Second
}

// WaitTimeoutDuration 返回等待状态房间超时时长
func (c *RoomConfig) WaitTimeoutDuration() time.Duration {
	return time.Duration(c.WaitTimeout) * time.Minute
}

// GraceDuration 返回指定游戏类型的重连宽限期
func (c *RoomConfig) GraceDuration(gameType string) time.Duration {
	if sec, ok := c.Grace[gameType]; ok {
		return time.Duration(sec) * time.Second
	}
	return time.Duration(c.GraceDefault) * time.Second
}

// SimulationInterval 返回连续模拟的 tick 间隔
func (c *SyncConfig) SimulationInterval() time.Duration {
	return time.Second / time.Duration(c.SimulationHz)
}

// BroadcastInterval 返回增量广播间隔
func (c *SyncConfig) BroadcastInterval() time.Duration {
	return time.Second / time.Duration(c.BroadcastHz)
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 填充缺省值
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1780
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 2000
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 720
	}
	if cfg.Room.IdleTimeout == 0 {
		cfg.Room.IdleTimeout = 60
	}
	if cfg.Room.WaitTimeout == 0 {
		cfg.Room.WaitTimeout = 10
	}
	if cfg.Room.Countdown == 0 {
		cfg.Room.Countdown = 3
	}
	if cfg.Room.MaxSpectators == 0 {
		cfg.Room.MaxSpectators = 20
	}
	if cfg.Room.GraceDefault == 0 {
		cfg.Room.GraceDefault = 60
	}
	if cfg.Room.Grace == nil {
		cfg.Room.Grace = map[string]int{
			"flip":      60,
			"reflex":    60,
			"crossword": 30,
			"billiards": 120,
			"mine":      300,
		}
	}
	if cfg.Sync.SimulationHz == 0 {
		cfg.Sync.SimulationHz = 20
	}
	if cfg.Sync.BroadcastHz == 0 {
		cfg.Sync.BroadcastHz = 10
	}
	if cfg.Sync.BroadcastHz > cfg.Sync.SimulationHz {
		cfg.Sync.BroadcastHz = cfg.Sync.SimulationHz
	}
}
