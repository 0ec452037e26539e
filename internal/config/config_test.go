package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, []string{"Greeting and Introducing", "Health and Wellness"}, cfg.FreeCategories)
	assert.Equal(t, time.UTC, cfg.QuotaLocation())
	assert.True(t, cfg.IsDevelopment())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{StoreDriver: StoreDriverMemory, JWTSecret: "s", QuotaTimezone: "UTC"}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = StoreDriverPostgres }, "DB_CONNECTION_STRING"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"no secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"secret resource only", func(c *Config) { c.JWTSecret = ""; c.JWTSecretResource = "jwt-secret" }, ""},
		{"bad timezone", func(c *Config) { c.QuotaTimezone = "Mars/Olympus" }, "QUOTA_TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
