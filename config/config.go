package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"db"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Log           LogConfig           `mapstructure:"log"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	GinMode      string   `mapstructure:"gin_mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotificationsConfig struct {
	// IncludeContentInPush sends the first page with every push instead
	// of the counts alone.
	IncludeContentInPush bool `mapstructure:"include_content_in_push"`
	CacheEnabled         bool `mapstructure:"cache_enabled"`
	CacheTTLSeconds      int  `mapstructure:"cache_ttl_seconds"`
	PageSize             int  `mapstructure:"page_size"`
	SendBuffer           int  `mapstructure:"send_buffer"`
}

func (c NotificationsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads defaults, then config.yaml (or path), then the environment.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.allow_origins", []string{"http://127.0.0.1:5500"})

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "root:@tcp(127.0.0.1:3306)/notifications?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.log_sql", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("notifications.include_content_in_push", false)
	v.SetDefault("notifications.cache_enabled", true)
	v.SetDefault("notifications.cache_ttl_seconds", 3600)
	v.SetDefault("notifications.page_size", 20)
	v.SetDefault("notifications.send_buffer", 16)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short names kept for existing deployments.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.gin_mode", "SERVER_GIN_MODE", "GIN_MODE")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.Database.Driver)
	}
	if c.Notifications.PageSize <= 0 {
		return fmt.Errorf("config: notifications.page_size must be positive")
	}
	if c.Notifications.CacheTTLSeconds <= 0 {
		return fmt.Errorf("config: notifications.cache_ttl_seconds must be positive")
	}
	return nil
}
