package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfill/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DOCFILL_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Port)
	assert.Equal(t, int64(10), cfg.Server.MaxUploadMB)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxUploadBytes())
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "docfill.sid", cfg.Session.CookieName)
	assert.Equal(t, config.SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Name)
	assert.Equal(t, 120, cfg.Model.TimeoutSecs)
	assert.Equal(t, config.ArchiveNone, cfg.Archive.Provider)
	assert.False(t, cfg.Archive.Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_PrefixedOverrides(t *testing.T) {
	t.Setenv("DOCFILL_SESSION_SECRET", "s3cret")
	t.Setenv("DOCFILL_SESSION_TTL", "30m")
	t.Setenv("DOCFILL_SESSION_STORE", "REDIS")
	t.Setenv("DOCFILL_REDIS_ADDR", "redis:6380")
	t.Setenv("DOCFILL_MODEL_API_KEY", "prefixed-key")
	t.Setenv("DOCFILL_CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, config.SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "prefixed-key", cfg.Model.APIKey)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_LegacyVariableNames(t *testing.T) {
	t.Setenv("SESSION_SECRET", "legacy-secret")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("PORT", "8081")
	t.Setenv("DOCFILL_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Session.Secret)
	assert.Equal(t, "legacy-key", cfg.Model.APIKey)
	assert.Equal(t, ":8081", cfg.Server.Port)
}

func TestLoad_PrefixedWinsOverLegacy(t *testing.T) {
	t.Setenv("DOCFILL_SESSION_SECRET", "new")
	t.Setenv("SESSION_SECRET", "old")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "new", cfg.Session.Secret)
}

func validConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{Secret: "x", TTL: time.Hour, Store: config.SessionStoreMemory},
		Model:   config.ModelConfig{Provider: "gemini"},
		Archive: config.ArchiveConfig{Provider: config.ArchiveNone},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Secret = "  "

	err := cfg.Validate()

	assert.ErrorIs(t, err, config.ErrMissingSessionSecret)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"zero ttl", func(c *config.Config) { c.Session.TTL = 0 }},
		{"unknown store", func(c *config.Config) { c.Session.Store = "memcached" }},
		{"unknown provider", func(c *config.Config) { c.Model.Provider = "openai" }},
		{"unknown archive", func(c *config.Config) { c.Archive.Provider = "gcs" }},
		{"archive without bucket", func(c *config.Config) { c.Archive.Provider = config.ArchiveS3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
