// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit"`        // requests per window per user
	RateLimitWindow time.Duration `yaml:"rate_limit_window"` // window size
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // plan cache TTL
}

type BillingConfig struct {
	Stripe struct {
		APIKey        string        `yaml:"api_key"`
		WebhookSecret string        `yaml:"webhook_secret"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxRetries    int           `yaml:"max_retries"`
	} `yaml:"stripe"`
}

type IdentityConfig struct {
	Issuer   string `yaml:"issuer"`   // OIDC issuer URL
	Audience string `yaml:"audience"` // expected aud claim
	DevHMAC  string `yaml:"dev_hmac"` // dev-only shared secret for locally minted tokens
}

type ContentConfig struct {
	CMSBaseURL string        `yaml:"cms_base_url"` // empty enables the static fallback feed
	Timeout    time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileBatch    int           `yaml:"reconcile_batch"`
	Workers           int           `yaml:"workers"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Billing   BillingConfig   `yaml:"billing"`
	Identity  IdentityConfig  `yaml:"identity"`
	Content   ContentConfig   `yaml:"content"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	if !dev {
		if cfg.Billing.Stripe.APIKey == "" {
			return nil, fmt.Errorf("billing.stripe.api_key is required")
		}
		if cfg.Billing.Stripe.WebhookSecret == "" {
			return nil, fmt.Errorf("billing.stripe.webhook_secret is required")
		}
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 25 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimit <= 0 {
		cfg.Server.RateLimit = 60
	}
	if cfg.Server.RateLimitWindow <= 0 {
		cfg.Server.RateLimitWindow = time.Minute
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
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Billing.Stripe.Timeout <= 0 {
		cfg.Billing.Stripe.Timeout = 20 * time.Second
	}
	if cfg.Billing.Stripe.MaxRetries == 0 {
		cfg.Billing.Stripe.MaxRetries = 2
	}
	if cfg.Content.Timeout <= 0 {
		cfg.Content.Timeout = 10 * time.Second
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = 10 * time.Minute
	}
	if cfg.Scheduler.ReconcileBatch <= 0 {
		cfg.Scheduler.ReconcileBatch = 200
	}
	if cfg.Scheduler.Workers <= 0 {
		cfg.Scheduler.Workers = 4
	}
}
