package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Redis   RedisConfig
	Model   ModelConfig
	Archive ArchiveConfig
	Log     LogConfig
	CORS    CORSConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB * 1024 * 1024
}

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// SessionConfig holds browser-session settings.
type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	Issuer       string        `mapstructure:"issuer"`
	Store        string        `mapstructure:"store"`
}

// RedisConfig holds settings for the redis session store.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ModelConfig holds settings for the external vision model.
type ModelConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Name        string `mapstructure:"name"`
	Endpoint    string `mapstructure:"endpoint"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Archive providers.
const (
	ArchiveNone  = "none"
	ArchiveS3    = "s3"
	ArchiveMinio = "minio"
)

// ArchiveConfig holds object storage settings for keeping a copy of uploads.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether uploads should be archived.
func (a *ArchiveConfig) Enabled() bool {
	return a.Provider != "" && a.Provider != ArchiveNone
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ErrMissingSessionSecret is returned by Validate when no session secret is configured.
var ErrMissingSessionSecret = errors.New("session secret is not defined (set DOCFILL_SESSION_SECRET or SESSION_SECRET)")

// Validate checks settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrMissingSessionSecret
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store: %q", c.Session.Store)
	}
	switch c.Model.Provider {
	case "gemini", "gemini-sdk":
	default:
		return fmt.Errorf("unknown model provider: %q", c.Model.Provider)
	}
	switch c.Archive.Provider {
	case "", ArchiveNone, ArchiveS3, ArchiveMinio:
	default:
		return fmt.Errorf("unknown archive provider: %q", c.Archive.Provider)
	}
	if c.Archive.Enabled() && c.Archive.Bucket == "" {
		return fmt.Errorf("archive bucket is required for provider %q", c.Archive.Provider)
	}
	return nil
}

// Load reads configuration from environment variables with the DOCFILL_ prefix.
// SESSION_SECRET, GEMINI_API_KEY and PORT are honoured as fallbacks.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 10)

	// Session defaults
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("session.cookie_name", "docfill.sid")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.issuer", "docfill")
	v.SetDefault("session.store", SessionStoreMemory)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "docfill:")

	// Model defaults
	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "gemini-2.0-flash")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.timeout_secs", 120)

	// Archive defaults
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.use_ssl", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("metrics.enabled", true)

	// Bind environment variables explicitly for nested keys. A second name is a fallback.
	envBindings := map[string][]string{
		"server.port":           {"DOCFILL_SERVER_PORT"},
		"server.read_timeout":   {"DOCFILL_SERVER_READ_TIMEOUT"},
		"server.write_timeout":  {"DOCFILL_SERVER_WRITE_TIMEOUT"},
		"server.environment":    {"DOCFILL_SERVER_ENVIRONMENT"},
		"server.max_upload_mb":  {"DOCFILL_SERVER_MAX_UPLOAD_MB"},
		"session.secret":        {"DOCFILL_SESSION_SECRET", "SESSION_SECRET"},
		"session.ttl":           {"DOCFILL_SESSION_TTL"},
		"session.cookie_name":   {"DOCFILL_SESSION_COOKIE_NAME"},
		"session.cookie_secure": {"DOCFILL_SESSION_COOKIE_SECURE"},
		"session.issuer":        {"DOCFILL_SESSION_ISSUER"},
		"session.store":         {"DOCFILL_SESSION_STORE"},
		"redis.addr":            {"DOCFILL_REDIS_ADDR"},
		"redis.password":        {"DOCFILL_REDIS_PASSWORD"},
		"redis.db":              {"DOCFILL_REDIS_DB"},
		"redis.key_prefix":      {"DOCFILL_REDIS_KEY_PREFIX"},
		"model.provider":        {"DOCFILL_MODEL_PROVIDER"},
		"model.api_key":         {"DOCFILL_MODEL_API_KEY", "GEMINI_API_KEY"},
		"model.name":            {"DOCFILL_MODEL_NAME"},
		"model.endpoint":        {"DOCFILL_MODEL_ENDPOINT"},
		"model.timeout_secs":    {"DOCFILL_MODEL_TIMEOUT_SECS"},
		"archive.provider":      {"DOCFILL_ARCHIVE_PROVIDER"},
		"archive.bucket":        {"DOCFILL_ARCHIVE_BUCKET"},
		"archive.region":        {"DOCFILL_ARCHIVE_REGION"},
		"archive.endpoint":      {"DOCFILL_ARCHIVE_ENDPOINT"},
		"archive.access_key":    {"DOCFILL_ARCHIVE_ACCESS_KEY"},
		"archive.secret_key":    {"DOCFILL_ARCHIVE_SECRET_KEY"},
		"archive.use_ssl":       {"DOCFILL_ARCHIVE_USE_SSL"},
		"log.level":             {"DOCFILL_LOG_LEVEL"},
		"log.format":            {"DOCFILL_LOG_FORMAT"},
		"log.file":              {"DOCFILL_LOG_FILE"},
		"log.max_size_mb":       {"DOCFILL_LOG_MAX_SIZE_MB"},
		"log.max_backups":       {"DOCFILL_LOG_MAX_BACKUPS"},
		"log.max_age_days":      {"DOCFILL_LOG_MAX_AGE_DAYS"},
		"log.compress":          {"DOCFILL_LOG_COMPRESS"},
		"cors.allowed_origins":  {"DOCFILL_CORS_ALLOWED_ORIGINS"},
		"metrics.enabled":       {"DOCFILL_METRICS_ENABLED"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if DOCFILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCFILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxUploadMB:  v.GetInt64("server.max_upload_mb"),
	}
	cfg.Session = SessionConfig{
		Secret:       v.GetString("session.secret"),
		TTL:          v.GetDuration("session.ttl"),
		CookieName:   v.GetString("session.cookie_name"),
		CookieSecure: v.GetBool("session.cookie_secure"),
		Issuer:       v.GetString("session.issuer"),
		Store:        strings.ToLower(v.GetString("session.store")),
	}
	cfg.Redis = RedisConfig{
		Addr:      v.GetString("redis.addr"),
		Password:  v.GetString("redis.password"),
		DB:        v.GetInt("redis.db"),
		KeyPrefix: v.GetString("redis.key_prefix"),
	}
	cfg.Model = ModelConfig{
		Provider:    strings.ToLower(v.GetString("model.provider")),
		APIKey:      v.GetString("model.api_key"),
		Name:        v.GetString("model.name"),
		Endpoint:    v.GetString("model.endpoint"),
		TimeoutSecs: v.GetInt("model.timeout_secs"),
	}
	cfg.Archive = ArchiveConfig{
		Provider:  strings.ToLower(v.GetString("archive.provider")),
		Bucket:    v.GetString("archive.bucket"),
		Region:    v.GetString("archive.region"),
		Endpoint:  v.GetString("archive.endpoint"),
		AccessKey: v.GetString("archive.access_key"),
		SecretKey: v.GetString("archive.secret_key"),
		UseSSL:    v.GetBool("archive.use_ssl"),
	}
	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
		Compress:   v.GetBool("log.compress"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
	}

	return cfg, nil
}
