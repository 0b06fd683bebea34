// Package config loads the bot configuration from a YAML file layered with
// environment variables. Environment values win.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/habtamu-tamere/Bot/internal/catalog"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/storage"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// TelegramConfig holds bot identity and update delivery settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	// Channel receives published job posts, "@username" or a numeric chat id.
	Channel string `yaml:"channel" envconfig:"TELEGRAM_CHANNEL"`
	// WebURL is the job portal web page offered via /web; empty hides the command.
	WebURL  string `yaml:"web_url" envconfig:"TELEGRAM_WEB_URL"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook listener settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// RateLimitConfig throttles per-user update handling.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// SenderConfig tunes the asynchronous outbound queue.
type SenderConfig struct {
	QueueSize        int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	Workers          int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	MaxRetries       int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	RetryBackoffSecs int `yaml:"retry_backoff_seconds" envconfig:"SENDER_RETRY_BACKOFF_SECONDS"`
}

// CatalogConfig optionally replaces the built-in tiers and add-ons.
type CatalogConfig struct {
	Tiers  []catalog.Tier  `yaml:"tiers"`
	Addons []catalog.Addon `yaml:"addons"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Database  storage.Config  `yaml:"database"`
	Logging   logging.Config  `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Sender    SenderConfig    `yaml:"sender"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{"callback": {}, "message": {}}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

// BuildCatalog returns the configured catalog, or the built-in one when the
// config does not override it.
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	if len(c.Catalog.Tiers) == 0 && len(c.Catalog.Addons) == 0 {
		return catalog.Default(), nil
	}
	if len(c.Catalog.Tiers) == 0 {
		return nil, fmt.Errorf("catalog.tiers must not be empty when catalog is overridden")
	}
	return catalog.New(c.Catalog.Tiers, c.Catalog.Addons)
}
