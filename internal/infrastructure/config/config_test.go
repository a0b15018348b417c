package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-admin-api/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins: ["https://admin.example.com"]
database:
  path: /tmp/lending-test.db
errors:
  include_timestamp: true
connect_code:
  ttl: 5m
  length: 10
security:
  admin_keys:
    - name: alice
      role: admin
      hash: $2a$04$abcdefghijklmnopqrstuv
  policies:
    - ["p", "admin", "/api/v1/*", "*"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/lending-test.db", cfg.Database.Path)
	assert.True(t, cfg.Errors.IncludeTimestamp)
	assert.False(t, cfg.Errors.ExposeInternalMessages)
	assert.Equal(t, 5*time.Minute, cfg.ConnectCode.TTL)
	assert.Equal(t, 10, cfg.ConnectCode.Length)
	assert.Equal(t, 5, cfg.ConnectCode.RedeemPerMinute, "unset keys keep defaults")
	require.Len(t, cfg.Security.AdminKeys, 1)
	assert.Equal(t, "alice", cfg.Security.AdminKeys[0].Name)
	assert.Equal(t, [][]string{{"p", "admin", "/api/v1/*", "*"}}, cfg.Security.Policies)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("LENDING_SERVER_PORT", "7070")
	t.Setenv("LENDING_DATABASE_PATH", "/var/lib/lending.db")
	t.Setenv("LENDING_LOG_LEVEL", "debug")
	t.Setenv("LENDING_CONNECT_CODE_REDEEM_PER_MINUTE", "12")
	t.Setenv("LENDING_ERRORS_EXPOSE_INTERNAL_MESSAGES", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/lending.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 12, cfg.ConnectCode.RedeemPerMinute)
	assert.True(t, cfg.Errors.ExposeInternalMessages)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port", func(c *config.Config) { c.Server.Port = 0 }},
		{"db path", func(c *config.Config) { c.Database.Path = "" }},
		{"ttl", func(c *config.Config) { c.ConnectCode.TTL = 0 }},
		{"length", func(c *config.Config) { c.ConnectCode.Length = 2 }},
		{"redeem limit", func(c *config.Config) { c.ConnectCode.RedeemBurst = 0 }},
		{"admin key", func(c *config.Config) {
			c.Security.AdminKeys = []config.AdminKeyConfig{{Name: "alice"}}
		}},
	}

	require.NoError(t, config.Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	assert.Equal(t, filepath.Join("configs", "app.yaml"), config.DefaultPath())

	t.Setenv("APP_CONFIG", "/etc/lending/app.yaml")
	assert.Equal(t, "/etc/lending/app.yaml", config.DefaultPath())
}
