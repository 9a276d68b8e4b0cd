package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DATABASE", "bigstone.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, AuthModeLocal, cfg.AuthMode)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.ResolveInterval)
	assert.True(t, cfg.IsSQLite())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_DATABASE=from-file.db\nRESOLVE_INTERVAL=30\nREDIS_DB=2\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)

	// godotenv never overrides variables already present
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DATABASE", "")
	os.Unsetenv("DB_DATABASE")
	os.Unsetenv("RESOLVE_INTERVAL")
	os.Unsetenv("REDIS_DB")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBDatabase)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ResolveInterval)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DBType:         "postgres",
			DBDatabase:     "bigstone",
			DBUser:         "bigstone",
			AuthMode:       AuthModeLocal,
			RedisAddr:      "localhost:6379",
			StorageBackend: StorageLocal,
			StorageDir:     "uploads",
			SessionTTL:     time.Hour,
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database", func(c *Config) { c.DBDatabase = "" }},
		{"bad db type", func(c *Config) { c.DBType = "oracle" }},
		{"missing db user", func(c *Config) { c.DBUser = "" }},
		{"authorizer without url", func(c *Config) { c.AuthMode = AuthModeAuthorizer }},
		{"bad auth mode", func(c *Config) { c.AuthMode = "ldap" }},
		{"gcs without bucket", func(c *Config) { c.StorageBackend = StorageGCS }},
		{"bad storage", func(c *Config) { c.StorageBackend = "s3" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "1h30m")
	assert.Equal(t, 90*time.Minute, getEnvAsDuration("TEST_DURATION", 0))

	t.Setenv("TEST_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvAsDuration("TEST_DURATION", 0))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))
}
