package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFICATIONS_INCLUDE_CONTENT_IN_PUSH", "true")
	t.Setenv("NOTIFICATIONS_CACHE_TTL_SECONDS", "120")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.True(t, cfg.Notifications.IncludeContentInPush)
	assert.True(t, cfg.Notifications.CacheEnabled)
	assert.Equal(t, 2*time.Minute, cfg.Notifications.CacheTTL())
	assert.Equal(t, 20, cfg.Notifications.PageSize)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  jwt_secret: file-secret-0123456789
db:
  driver: sqlite
  dsn: "file::memory:"
notifications:
  page_size: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Notifications.PageSize)
	assert.False(t, cfg.Notifications.IncludeContentInPush)
	assert.Equal(t, time.Hour, cfg.Notifications.CacheTTL())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: 8080},
			Database:      DatabaseConfig{Driver: "mysql"},
			Auth:          AuthConfig{JWTSecret: "0123456789abcdef"},
			Notifications: NotificationsConfig{PageSize: 20, CacheTTLSeconds: 3600},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Notifications.PageSize = 0 }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Notifications.CacheTTLSeconds = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
