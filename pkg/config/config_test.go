package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 300*time.Second, cfg.Auth.OTPTTL)
	assert.Equal(t, int64(5_000_000), cfg.Storage.MaxUploadBytes)
	assert.False(t, cfg.Auth.RequireVerifiedEmail)
	assert.Equal(t, "Trail Bliss", cfg.Email.FromName)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("REQUIRE_VERIFIED_EMAIL", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Auth.OTPTTL)
	assert.True(t, cfg.Auth.RequireVerifiedEmail)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OTP_TTL", "five minutes")

	_, err := Load()
	require.Error(t, err)
}
