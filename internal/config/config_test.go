package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOTENV_FILE_PATH", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "images", cfg.StorageBucket)
	assert.Equal(t, 5*time.Second, cfg.SocialHTTPTimeout)
	assert.False(t, cfg.IsProd())
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=mysql\nSTORAGE_BUCKET=uploads\n"), 0o600))
	t.Setenv("DOTENV_FILE_PATH", path)
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("STORAGE_BUCKET")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "uploads", cfg.StorageBucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOTENV_FILE_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.True(t, cfg.StorageUseSSL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:       "postgres",
			DatabaseDSN:    "host=localhost",
			JWTSecret:      "change-me",
			AccessTokenTTL: time.Hour,
			StorageBucket:  "images",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DBDriver = "sqlite" }, "DB_DRIVER"},
		{"missing dsn", func(c *Config) { c.DatabaseDSN = "" }, "DATABASE_DSN"},
		{"weak prod secret", func(c *Config) { c.Stage = "production" }, "JWT_SECRET"},
		{"zero ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "ACCESS_TOKEN_TTL"},
		{"missing bucket", func(c *Config) { c.StorageBucket = "" }, "STORAGE_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
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

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, (&Config{}).AllowedOrigins())
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		(&Config{CORSOrigins: " https://a.example, ,https://b.example "}).AllowedOrigins())
}
