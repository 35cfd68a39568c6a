package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "ganttboard/pkg/config"
)

type Config struct {
	App       pkgconfig.AppConfig       `yaml:"app"`
	Server    pkgconfig.ServerConfig    `yaml:"server"`
	DB        pkgconfig.DBConfig        `yaml:"db"`
	JWT       pkgconfig.JWTConfig       `yaml:"jwt"`
	Redis     pkgconfig.RedisConfig     `yaml:"redis"`
	MQ        pkgconfig.MQConfig        `yaml:"mq"`
	Log       pkgconfig.LogConfig       `yaml:"log"`
	Admin     pkgconfig.AdminConfig     `yaml:"admin"`
	RateLimit pkgconfig.RateLimitConfig `yaml:"ratelimit"`
}

// Default 返回不依赖任何配置文件即可运行的默认值（sqlite 本地库）
func Default() *Config {
	return &Config{
		App: pkgconfig.AppConfig{Name: "ganttboard", Env: "local"},
		Server: pkgconfig.ServerConfig{
			Port: ":5000",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:5000",
				"http://127.0.0.1:5173",
			},
		},
		DB: pkgconfig.DBConfig{
			Driver:             "sqlite",
			Path:               "ganttboard.db",
			Port:               5432,
			MaxConns:           10,
			MinConns:           2,
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		JWT:   pkgconfig.JWTConfig{Secret: "your-secret-key", TTL: 24 * time.Hour},
		Log:   pkgconfig.LogConfig{Level: "info"},
		Admin: pkgconfig.AdminConfig{Username: "admin", Password: "admin123"},
		RateLimit: pkgconfig.RateLimitConfig{
			AuthRequestsPerMinute: 30,
			AuthBurst:             15,
			MaxLoginFailures:      5,
			LockoutWindow:         15 * time.Minute,
		},
	}
}

// DefaultDir 配置目录，可用 CONFIG_DIR 覆盖
func DefaultDir() string {
	return pkgconfig.GetEnv("CONFIG_DIR", "config")
}

// Load 按 CONFIG_ENV 读取 configDir 下的多环境配置，再用环境变量覆盖
func Load(configDir string) (*Config, error) {
	merged, err := pkgconfig.LoadConfig(pkgconfig.GetConfigEnv(), configDir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := pkgconfig.Decode(merged, cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查启动所需的最小配置
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres":
		if c.DB.Host == "" || c.DB.Name == "" {
			return fmt.Errorf("db.host and db.name are required for the postgres driver")
		}
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	if c.JWT.Secret == "" || strings.HasPrefix(c.JWT.Secret, "${") {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	pkgconfig.OverrideAppFromEnv(&cfg.App)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideLogFromEnv(&cfg.Log)
}
