package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration.
type Config struct {
	Port int

	// Identity provider (the auth backend that issues magic links)
	IdentityBaseURL string
	IdentityAPIKey  string
	IdentityTimeout time.Duration

	// Accounts service (tutor/student provisioning collaborator)
	AccountsBaseURL string
	AccountsAPIKey  string
	AccountsTimeout time.Duration

	// Session
	SessionSecret            string
	SessionSecureCookie      bool // Set to true in production (HTTPS only)
	SessionRedisStoreEnabled bool
	SessionRedisStorePrefix  string

	// Redis
	RedisEnabled bool
	RedisHost    string
	RedisPort    int
	RedisProto   string
	RedisPass    string
	RedisDB      int
}

// envKeyTransform transforms environment variable names to koanf keys.
// APP_IDENTITY_BASE_URL -> identity.base.url
func envKeyTransform(s string) string {
	return strings.ReplaceAll(
		strings.ToLower(strings.TrimPrefix(s, "APP_")),
		"_",
		".",
	)
}

// Load loads configuration from .env files and environment variables.
// The loading order is:
// 1. .env file (if exists)
// 2. .env.local file (if exists)
// 3. Environment variables (override files)
//
// Environment variables use the APP_ prefix and underscore separation.
// Example: APP_IDENTITY_BASE_URL -> identity.base.url
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from the specified directory.
// If path is empty, uses current directory.
func LoadFromPath(path string) (*Config, error) {
	k := koanf.New(".")

	// Build .env file paths
	envFile := ".env"
	envLocalFile := ".env.local"
	if path != "" {
		envFile = path + "/" + envFile
		envLocalFile = path + "/" + envLocalFile
	}

	// Load .env file if it exists (base configuration)
	if _, err := os.Stat(envFile); err == nil {
		if err := k.Load(file.Provider(envFile), dotenv.ParserEnv("APP_", ".", envKeyTransform)); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Load .env.local file if it exists (local overrides, typically gitignored)
	if _, err := os.Stat(envLocalFile); err == nil {
		if err := k.Load(file.Provider(envLocalFile), dotenv.ParserEnv("APP_", ".", envKeyTransform)); err != nil {
			return nil, fmt.Errorf("loading .env.local file: %w", err)
		}
	}

	// Load environment variables with APP_ prefix (override files)
	err := k.Load(env.Provider("APP_", ".", envKeyTransform), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Also load PORT without prefix (common convention)
	_ = k.Load(env.Provider("", ".", func(s string) string {
		if s == "PORT" {
			return "port"
		}
		return ""
	}), nil)

	cfg := &Config{
		Port: k.Int("port"),

		// Identity provider
		IdentityBaseURL: strings.TrimSuffix(k.String("identity.base.url"), "/"),
		IdentityAPIKey:  k.String("identity.api.key"),
		IdentityTimeout: time.Duration(k.Int("identity.timeout.seconds")) * time.Second,

		// Accounts service
		AccountsBaseURL: strings.TrimSuffix(k.String("accounts.base.url"), "/"),
		AccountsAPIKey:  k.String("accounts.api.key"),
		AccountsTimeout: time.Duration(k.Int("accounts.timeout.seconds")) * time.Second,

		// Session
		SessionSecret:            k.String("session.secret"),
		SessionSecureCookie:      k.String("session.secure.cookie") == "1",
		SessionRedisStoreEnabled: k.String("session.redis.store.enabled") == "1",
		SessionRedisStorePrefix:  k.String("session.redis.store.prefix"),

		// Redis
		RedisEnabled: k.String("redis.enabled") == "1",
		RedisHost:    k.String("redis.host"),
		RedisPort:    k.Int("redis.port"),
		RedisProto:   k.String("redis.proto"),
		RedisPass:    k.String("redis.pass"),
		RedisDB:      k.Int("redis.db"),
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.IdentityTimeout == 0 {
		cfg.IdentityTimeout = 10 * time.Second
	}
	if cfg.AccountsTimeout == 0 {
		cfg.AccountsTimeout = 5 * time.Second
	}

	if cfg.RedisPort == 0 {
		cfg.RedisPort = 6379
	}
	if cfg.RedisProto == "" {
		cfg.RedisProto = "rediss"
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var missing []string

	if c.SessionSecret == "" {
		missing = append(missing, "APP_SESSION_SECRET")
	}
	if c.IdentityBaseURL == "" {
		missing = append(missing, "APP_IDENTITY_BASE_URL")
	}
	if c.IdentityAPIKey == "" {
		missing = append(missing, "APP_IDENTITY_API_KEY")
	}
	if c.AccountsBaseURL == "" {
		missing = append(missing, "APP_ACCOUNTS_BASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// LogConfig logs the configuration (with secrets redacted).
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		"port", c.Port,
		"identity_base_url", c.IdentityBaseURL,
		"identity_timeout", c.IdentityTimeout,
		"accounts_base_url", c.AccountsBaseURL,
		"accounts_timeout", c.AccountsTimeout,
		"redis_enabled", c.RedisEnabled,
		"session_redis_store_enabled", c.SessionRedisStoreEnabled,
	)
}
