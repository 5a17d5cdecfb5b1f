package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	defaultSchedule = "0 8,12,16,20,23 * * *"
	defaultTimezone = "Asia/Kolkata"
)

// Config represents application configuration
type Config struct {
	Database      DatabaseConfig      `mapstructure:"database"`
	Calendar      CalendarConfig      `mapstructure:"calendar"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
}

// DatabaseConfig represents the SQLite store configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CalendarConfig represents business calendar configuration
type CalendarConfig struct {
	Timezone     string `mapstructure:"timezone"`      // IANA zone application timestamps are read in
	FallbackFile string `mapstructure:"fallback_file"` // YAML holidays used when the database is unavailable
}

// Recipient is a named mailbox
type Recipient struct {
	Name  string `mapstructure:"name" json:"name"`
	Email string `mapstructure:"email" json:"email"`
}

// NotificationsConfig represents TAT delay notification configuration
type NotificationsConfig struct {
	Schedule   string      `mapstructure:"schedule"` // standard 5-field cron expression
	RunOnStart bool        `mapstructure:"run_on_start"`
	Notifier   string      `mapstructure:"notifier"` // "log" or "outbox"
	OutboxDir  string      `mapstructure:"outbox_dir"`
	StateFile  string      `mapstructure:"state_file"`
	To         []Recipient `mapstructure:"to"`
	CC         []Recipient `mapstructure:"cc"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bgv-admin")
		v.AddConfigPath("/etc/bgv-admin")
	}

	v.SetDefault("database.path", "./data/bgv.db")
	v.SetDefault("calendar.timezone", defaultTimezone)
	v.SetDefault("notifications.schedule", defaultSchedule)
	v.SetDefault("notifications.run_on_start", true)
	v.SetDefault("notifications.notifier", "log")
	v.SetDefault("notifications.outbox_dir", "./data/outbox")
	v.SetDefault("notifications.state_file", "./data/notification_state.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	// Read environment variables (BGV_DATABASE_PATH, ...)
	v.SetEnvPrefix("bgv")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("calendar.timezone is invalid: %w", err)
	}

	if _, err := cron.ParseStandard(c.Notifications.Schedule); err != nil {
		return fmt.Errorf("notifications.schedule is invalid: %w", err)
	}

	switch c.Notifications.Notifier {
	case "", "log":
	case "outbox":
		if c.Notifications.OutboxDir == "" {
			return fmt.Errorf("notifications.outbox_dir is required for outbox notifier")
		}
	default:
		return fmt.Errorf("notifications.notifier must be 'log' or 'outbox', got '%s'", c.Notifications.Notifier)
	}

	for i, r := range append(append([]Recipient{}, c.Notifications.To...), c.Notifications.CC...) {
		if !strings.Contains(r.Email, "@") {
			return fmt.Errorf("notifications recipient #%d has invalid email %q", i+1, r.Email)
		}
	}

	return nil
}

// Location returns the configured time zone
func (c *CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// MustLocation returns the configured time zone, or UTC when it cannot be loaded
func (c *CalendarConfig) MustLocation() *time.Location {
	loc, err := c.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Calendar.FallbackFile = os.ExpandEnv(c.Calendar.FallbackFile)
	c.Notifications.OutboxDir = os.ExpandEnv(c.Notifications.OutboxDir)
	c.Notifications.StateFile = os.ExpandEnv(c.Notifications.StateFile)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
