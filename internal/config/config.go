package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// RedisConfig holds optional redis settings for the balance display cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // Empty disables the cache.
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Empty logs to stderr only.
	MaxSizeMB  int    `yaml:"max-size-mb"` // Rotation threshold.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to keep.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 72
	}
	return time.Duration(hours) * time.Hour
}

// AdminConfig holds the administrative allow-list.
type AdminConfig struct {
	Emails []string `yaml:"emails"` // Emails permitted to call admin endpoints.
}

// BillingConfig holds pricing knobs for the billing strategies.
type BillingConfig struct {
	UploadCost            int64   `yaml:"upload-cost"`             // Flat credits per upload.
	ChatInputPer1K        float64 `yaml:"chat-input-per-1k"`       // Credits per 1,000 input tokens.
	ChatOutputPer1K       float64 `yaml:"chat-output-per-1k"`      // Credits per 1,000 output tokens.
	ChatMinimumCharge     int64   `yaml:"chat-minimum"`            // Floor for a metered charge.
	ChatPrecheckThreshold int64   `yaml:"chat-precheck-threshold"` // Minimum balance to start a chat.
	UsageWaitSeconds      int     `yaml:"usage-wait-seconds"`      // Postpayment wait for usage data.
}

// UsageWaitTimeout returns the bounded wait for handler usage reports.
func (c BillingConfig) UsageWaitTimeout() time.Duration {
	seconds := c.UsageWaitSeconds
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	Dir       string `yaml:"dir"`         // Storage directory.
	MaxSizeMB int64  `yaml:"max-size-mb"` // Per-file size cap.
}

// OpenAIConfig holds upstream chat completion settings.
type OpenAIConfig struct {
	BaseURL string `yaml:"base-url"`
	APIKey  string `yaml:"api-key"`
	Model   string `yaml:"model"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	JWT      JWTConfig      `yaml:"jwt"`
	Admin    AdminConfig    `yaml:"admin"`
	Billing  BillingConfig  `yaml:"billing"`
	Upload   UploadConfig   `yaml:"upload"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
}

// Default returns a configuration with development defaults applied.
func Default() Config {
	return Config{
		Server:   ServerConfig{Listen: ":8080"},
		Database: DatabaseConfig{DSN: "file:data/credits.db"},
		Logging:  LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3},
		JWT:      JWTConfig{ExpiryHours: 72},
		Billing: BillingConfig{
			UploadCost:            5,
			ChatInputPer1K:        1,
			ChatOutputPer1K:       2,
			ChatMinimumCharge:     1,
			ChatPrecheckThreshold: 10,
			UsageWaitSeconds:      30,
		},
		Upload: UploadConfig{Dir: "uploads", MaxSizeMB: 10},
		OpenAI: OpenAIConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return cfg, fmt.Errorf("config: database.dsn is required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, fmt.Errorf("config: jwt.secret is required")
	}
	return cfg, nil
}

// IsAdminEmail reports whether an email is on the admin allow-list.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.Admin.Emails {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}
