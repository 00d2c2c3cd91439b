package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/partsledger"
	cfg.Auth.JWTSecret = "dev-secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "memory driver needs no database", modify: func(c *Config) {
			c.Storage.Driver = DriverMemory
			c.Database.URL = ""
		}},
		{name: "postgres needs url", modify: func(c *Config) { c.Database.URL = "" }, wantErr: "database.url"},
		{name: "unknown driver", modify: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "storage.driver"},
		{name: "bad port", modify: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "missing secret", modify: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "jwt_secret"},
		{name: "short secret in production", modify: func(c *Config) { c.Env = "production" }, wantErr: "32 bytes"},
		{name: "pool bounds", modify: func(c *Config) { c.Database.MinConns = 50 }, wantErr: "max_conns"},
		{name: "outbox batch", modify: func(c *Config) { c.Outbox.BatchSize = 0 }, wantErr: "batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partsledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: staging
server:
  port: 9090
  read_timeout: 5s
storage:
  driver: memory
auth:
  jwt_secret: from-file
outbox:
  poll_interval: 250ms
`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("IDEMPOTENCY_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.False(t, cfg.Idempotency.Enabled)
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\nauth:\n  jwt_secret: s\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [1, 2"), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")

	ok := filepath.Join(t.TempDir(), "ok.yaml")
	require.NoError(t, os.WriteFile(ok, []byte("storage:\n  driver: memory\nauth:\n  jwt_secret: s\n"), 0o600))
	t.Setenv("APP_PORT", "eighty")
	_, err = Load(ok)
	assert.ErrorContains(t, err, "APP_PORT")
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
