// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port                  int `yaml:"port"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenTTLMinutes  int    `yaml:"token_ttl_minutes"`
	LoginRateLimit   int    `yaml:"login_rate_limit"`   // attempts per window per IP
	LoginRateWindowS int    `yaml:"login_rate_window_s"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

func (a AuthConfig) LoginRateWindow() time.Duration {
	return time.Duration(a.LoginRateWindowS) * time.Second
}

// PlanConfig is the single static plan served by the API.
type PlanConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	Currency    string   `yaml:"currency"`
	Interval    string   `yaml:"interval"`
	Features    []string `yaml:"features"`
}

type BillingConfig struct {
	Plan        PlanConfig `yaml:"plan"`
	CheckoutURL string     `yaml:"checkout_url"` // hosted checkout base, intent id is appended
	PeriodDays  int        `yaml:"period_days"`  // billing period granted per successful payment
}

func (b BillingConfig) Period() time.Duration {
	return time.Duration(b.PeriodDays) * 24 * time.Hour
}

type IdempotencyConfig struct {
	TTLHours int `yaml:"ttl_hours"`
}

func (i IdempotencyConfig) TTL() time.Duration {
	return time.Duration(i.TTLHours) * time.Hour
}

type WorkerConfig struct {
	PeriodEndIntervalSeconds int `yaml:"period_end_interval_seconds"`
}

func (w WorkerConfig) PeriodEndInterval() time.Duration {
	return time.Duration(w.PeriodEndIntervalSeconds) * time.Second
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Billing     BillingConfig     `yaml:"billing"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Worker      WorkerConfig      `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 15
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	if cfg.Auth.LoginRateLimit <= 0 {
		cfg.Auth.LoginRateLimit = 10
	}
	if cfg.Auth.LoginRateWindowS <= 0 {
		cfg.Auth.LoginRateWindowS = 60
	}
	if cfg.Billing.CheckoutURL == "" {
		cfg.Billing.CheckoutURL = "https://payment-provider.com/checkout"
	}
	if cfg.Billing.PeriodDays <= 0 {
		cfg.Billing.PeriodDays = 30
	}
	if cfg.Idempotency.TTLHours <= 0 {
		cfg.Idempotency.TTLHours = 24
	}
	if cfg.Worker.PeriodEndIntervalSeconds <= 0 {
		cfg.Worker.PeriodEndIntervalSeconds = 60
	}
	if cfg.Billing.Plan.ID == "" {
		cfg.Billing.Plan = PlanConfig{
			ID:          "premium-monthly",
			Name:        "Premium Plan",
			Description: "Full access to all features",
			Price:       19.99,
			Currency:    "EUR",
			Interval:    "month",
			Features:    []string{"Feature 1", "Feature 2", "Feature 3", "Priority Support"},
		}
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
