package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "apikey.local", cfg.Auth.APIKeyEmailDomain)
	assert.Equal(t, []string{"http://localhost:8080", "http://127.0.0.1:8080"}, cfg.Server.CORSOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TOKEN_EXPIRED_AFTER_SECONDS", "120")
	t.Setenv("DEBUG", "true")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Auth.TokenTTL())
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins())
	assert.Equal(t, DriverMemory, cfg.Auth.TokenStore)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9090
auth:
  secret_key: from-file
  token_store: redis
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.SecretKey)
	assert.Equal(t, DriverRedis, cfg.Auth.TokenStore)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RequiresSecretOutsideDebug(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Database: "teamhub", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/teamhub?sslmode=disable", cfg.DSN())
}
