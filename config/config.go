// Package config loads application settings from an optional YAML/JSON file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultJWTSecret = "change-me-in-production"
)

// Config is the root application configuration.
type Config struct {
	Env       string          `yaml:"env" json:"env"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	Google    GoogleConfig    `yaml:"google" json:"google"`
	Mail      MailConfig      `yaml:"mail" json:"mail"`
	Redis     RedisConfig     `yaml:"redis" json:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// HTTPConfig configures the fiber server.
type HTTPConfig struct {
	Port        int    `yaml:"port" json:"port"`
	FrontendURL string `yaml:"frontend_url" json:"frontend_url"`
	// AllowOrigins is passed to the CORS middleware as-is.
	AllowOrigins string `yaml:"allow_origins" json:"allow_origins"`
}

// DatabaseConfig selects and tunes the task/user/share store.
// A DSN beginning with postgres:// or postgresql:// selects PostgreSQL,
// anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN          string        `yaml:"dsn" json:"dsn"`
	Debug        bool          `yaml:"debug" json:"debug"`
	MaxOpenConns int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life" json:"conn_max_life"`
}

type AuthConfig struct {
	JWTSecret            string        `yaml:"jwt_secret" json:"jwt_secret"`
	Issuer               string        `yaml:"issuer" json:"issuer"`
	AccessTokenDuration  time.Duration `yaml:"access_token_duration" json:"access_token_duration"`
	RefreshTokenDuration time.Duration `yaml:"refresh_token_duration" json:"refresh_token_duration"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	CallbackURL  string `yaml:"callback_url" json:"callback_url"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.CallbackURL != ""
}

// MailConfig configures outbound email. An empty Host disables SMTP delivery
// and composed messages are only logged.
type MailConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

// RedisConfig is optional; an empty Addr disables the list cache and the
// auth rate limiter.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

type RateLimitConfig struct {
	AuthRequestsPerWindow int           `yaml:"auth_requests_per_window" json:"auth_requests_per_window"`
	Window                time.Duration `yaml:"window" json:"window"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
	// File is used when Output is "file".
	File FileConfig `yaml:"file" json:"file"`
}

type FileConfig struct {
	Path       string `yaml:"path" json:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Port:         5000,
			FrontendURL:  "http://localhost:3000",
			AllowOrigins: "*",
		},
		Database: DatabaseConfig{
			DSN:          "todo.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnMaxLife:  time.Hour,
		},
		Auth: AuthConfig{
			JWTSecret:            defaultJWTSecret,
			Issuer:               "todo-app",
			AccessTokenDuration:  7 * 24 * time.Hour,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
		Mail: MailConfig{
			Port: 587,
		},
		Redis: RedisConfig{
			CacheTTL: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerWindow: 20,
			Window:                time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
			File: FileConfig{
				Path:       "logs/todo-app.log",
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 14,
				Compress:   true,
			},
		},
	}
}

// Load builds the configuration from defaults, the file at path (skipped when
// path is empty) and finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overlays environment variables. Variable names follow the ones the
// service has always recognised (PORT, JWT_SECRET, EMAIL_USER, ...).
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(&cfg.Env, "APP_ENV")
	if err := num(&cfg.HTTP.Port, "PORT"); err != nil {
		return err
	}
	str(&cfg.HTTP.FrontendURL, "FRONTEND_URL")
	str(&cfg.HTTP.AllowOrigins, "CORS_ALLOW_ORIGINS")

	str(&cfg.Database.DSN, "DATABASE_URL", "MONGO_URI", "DB_PATH")
	if v, ok := lookup("DB_DEBUG"); ok {
		cfg.Database.Debug = v == "true" || v == "1"
	}

	str(&cfg.Auth.JWTSecret, "JWT_SECRET", "JWT_SECRET_KEY")
	str(&cfg.Auth.Issuer, "JWT_ISSUER")

	str(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	str(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	str(&cfg.Google.CallbackURL, "GOOGLE_CALLBACK_URL")

	str(&cfg.Mail.Host, "SMTP_HOST")
	if err := num(&cfg.Mail.Port, "SMTP_PORT"); err != nil {
		return err
	}
	str(&cfg.Mail.Username, "EMAIL_USER")
	str(&cfg.Mail.Password, "EMAIL_PASS")
	str(&cfg.Mail.From, "EMAIL_FROM", "EMAIL_USER")

	str(&cfg.Redis.Addr, "REDIS_ADDR")
	str(&cfg.Redis.Password, "REDIS_PASSWORD")

	str(&cfg.Logging.Level, "LOG_LEVEL")
	str(&cfg.Logging.Format, "LOG_FORMAT")
	str(&cfg.Logging.Output, "LOG_OUTPUT")
	str(&cfg.Logging.File.Path, "LOG_FILE")

	return nil
}

var (
	ErrInvalidPort   = errors.New("http port must be between 1 and 65535")
	ErrEmptyDSN      = errors.New("database dsn is required")
	ErrDefaultSecret = errors.New("jwt secret must be set in production")
)

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Database.DSN == "" {
		return ErrEmptyDSN
	}
	if c.Env == EnvProduction && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return ErrDefaultSecret
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = defaultJWTSecret
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	return nil
}

// ListenAddr returns the fiber listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
