package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Google   GoogleConfig   `mapstructure:"google"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Session  SessionConfig  `mapstructure:"session"`
	Frontend FrontendConfig `mapstructure:"frontend"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// GoogleConfig contains the OAuth client registration for Google sign-in.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	StateSecret  string `mapstructure:"state_secret"`
}

// LLMConfig contains settings for the chat-completion provider used to
// generate cover letters and cold messages.
type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SessionConfig controls how long minted session tokens stay valid.
type SessionConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

// FrontendConfig is where the OAuth callback sends the browser back to.
type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Timeout converts the configured timeout into a time.Duration.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// TTL converts the configured session lifetime into a time.Duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "jobtrail")
	v.SetDefault("database.user", "jobtrail")
	v.SetDefault("database.password", "jobtrail")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("google.redirect_url", "http://localhost:8080/api/auth/callback")
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("session.ttl_hours", 168)
	v.SetDefault("frontend.url", "http://localhost:3000")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":             "API_PORT",
		"database.host":        "DATABASE_HOST",
		"database.port":        "DATABASE_PORT",
		"database.name":        "POSTGRES_DB",
		"database.user":        "POSTGRES_USER",
		"database.password":    "POSTGRES_PASSWORD",
		"database.sslmode":     "DATABASE_SSLMODE",
		"redis.host":           "REDIS_HOST",
		"redis.port":           "REDIS_PORT",
		"google.client_id":     "GOOGLE_CLIENT_ID",
		"google.client_secret": "GOOGLE_CLIENT_SECRET",
		"google.redirect_url":  "GOOGLE_REDIRECT_URL",
		"google.state_secret":  "OAUTH_STATE_SECRET",
		"llm.api_key":          "LLM_API_KEY",
		"llm.base_url":         "LLM_BASE_URL",
		"llm.model":            "LLM_MODEL",
		"llm.timeout_seconds":  "LLM_TIMEOUT_SECONDS",
		"session.ttl_hours":    "SESSION_TTL_HOURS",
		"frontend.url":         "FRONTEND_URL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.Google.ClientID == "" {
		return errors.New("google client id is required")
	}
	if cfg.Google.ClientSecret == "" {
		return errors.New("google client secret is required")
	}
	if cfg.Google.RedirectURL == "" {
		return errors.New("google redirect url is required")
	}
	if cfg.Google.StateSecret == "" {
		return errors.New("oauth state secret is required")
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("llm api key is required")
	}
	if cfg.LLM.BaseURL == "" {
		return errors.New("llm base url is required")
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm timeout must be positive")
	}
	if cfg.Session.TTLHours <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Frontend.URL == "" {
		return errors.New("frontend url is required")
	}
	return nil
}
