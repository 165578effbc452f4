// Package config loads application configuration from environment variables
// and the YAML watch-targets file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 5000.
	Port int `envconfig:"PORT" default:"5000"`

	// DataDir is the root data directory. Defaults to ~/.slotwatch.
	DataDir string `envconfig:"SLOTWATCH_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PollInterval is the cadence of the provider poll loop.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`

	// Timezone is the calendar timezone used for "today" in provider queries
	// and ledger day rollover.
	Timezone string `envconfig:"TIMEZONE" default:"Asia/Kolkata"`

	// MinAgeLimit is the exact minimum-age band alerts are raised for.
	MinAgeLimit int `envconfig:"MIN_AGE_LIMIT" default:"18"`

	// TweetCapacityThreshold is the minimum capacity (exclusive) for the
	// social-post channel. Earlier deployments used 0 and 10.
	TweetCapacityThreshold int `envconfig:"TWEET_CAPACITY_THRESHOLD" default:"50"`

	// TargetsFile is the YAML file listing watch targets. Defaults to
	// <DataDir>/targets.yaml when empty.
	TargetsFile string `envconfig:"TARGETS_FILE"`

	// BaseURL is the public URL of this instance, used for unsubscribe links.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:5000"`

	// UnsubscribeSecret keys the hash that authorizes unsubscription.
	UnsubscribeSecret string `envconfig:"UNSUBSCRIBE_SECRET"`

	// TelegramBotToken enables the chat-broadcast channel when set.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	// TelegramChatID is the broadcast channel identifier.
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`

	// TwitterAccessToken enables the social-post channel when set.
	TwitterAccessToken string `envconfig:"TWITTER_ACCESS_TOKEN"`

	// SMTP settings enable the email channel when Host is set.
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPFromAddr   string `envconfig:"SMTP_FROM"`
	SMTPEncryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.slotwatch if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".slotwatch")
	}
	if c.TargetsFile == "" {
		c.TargetsFile = filepath.Join(c.DataDir, "targets.yaml")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "slotwatch.db")
}

// Location resolves the configured timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolving timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
