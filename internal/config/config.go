package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete somectl configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	State    StateConfig    `mapstructure:"state"`
	Review   ReviewConfig   `mapstructure:"review"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Images   ImagesConfig   `mapstructure:"images"`
	TUI      TUIConfig      `mapstructure:"tui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig controls how the REST backend is reached
type APIConfig struct {
	// BaseURL is the backend root, e.g. "https://api.example.com"
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds every HTTP request (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// UserAgent is sent with every request
	UserAgent string `mapstructure:"user_agent"`
}

// AuthConfig holds the pre-issued credentials used by the client
type AuthConfig struct {
	// Token is the bearer token presented to the backend.
	// Usually supplied through SOMECTL_AUTH_TOKEN rather than the config file.
	Token string `mapstructure:"token"`
	// RegistrationURL is shown when the backend reports no provisioned account
	RegistrationURL string `mapstructure:"registration_url"`
}

// StateConfig controls where client-local state is kept
type StateConfig struct {
	// Dir is the state directory. Empty means $XDG_STATE_HOME/somectl.
	Dir string `mapstructure:"dir"`
	// Backend selects the key/value store: "file" (default) or "sqlite"
	Backend string `mapstructure:"backend"`
}

// ReviewConfig controls the review queue
type ReviewConfig struct {
	// DefaultTime is the time of day pre-filled for new schedules (HH:MM, default "12:00")
	DefaultTime string `mapstructure:"default_time"`
}

// CalendarConfig controls the month view cache
type CalendarConfig struct {
	// CacheTTLSeconds is how long a fetched month stays fresh (0 disables caching)
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	// CacheSize is the maximum number of months kept in memory
	CacheSize int `mapstructure:"cache_size"`
}

// ImagesConfig controls the content library
type ImagesConfig struct {
	// MaxSizeBytes is the largest accepted upload (default: 5 MiB)
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// UploadConcurrency bounds parallel uploads (default: 4)
	UploadConcurrency int `mapstructure:"upload_concurrency"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// NotificationSeconds is how long a notification stays on screen (default: 4)
	NotificationSeconds int `mapstructure:"notification_seconds"`
	// WeekNumbers shows ISO week numbers beside the month grid
	WeekNumbers bool `mapstructure:"week_numbers"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the max size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
			UserAgent:      "somectl",
		},
		Auth: AuthConfig{
			Token:           "",
			RegistrationURL: "http://localhost:3000/register",
		},
		State: StateConfig{
			Dir:     "", // Empty means use StateDir()
			Backend: "file",
		},
		Review: ReviewConfig{
			DefaultTime: "12:00",
		},
		Calendar: CalendarConfig{
			CacheTTLSeconds: 60,
			CacheSize:       12,
		},
		Images: ImagesConfig{
			MaxSizeBytes:      5 * 1024 * 1024,
			UploadConcurrency: 4,
		},
		TUI: TUIConfig{
			NotificationSeconds: 4,
			WeekNumbers:         false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Timeout returns the request timeout as a time.Duration
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the month cache lifetime as a time.Duration (0 means disabled)
func (c *CalendarConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// NotificationDuration returns how long notifications are displayed
func (c *TUIConfig) NotificationDuration() time.Duration {
	return time.Duration(c.NotificationSeconds) * time.Second
}

// ResolvedDir returns the configured state directory or the default one
func (c *StateConfig) ResolvedDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return StateDir()
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// API defaults
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	viper.SetDefault("api.user_agent", defaults.API.UserAgent)

	// Auth defaults
	viper.SetDefault("auth.token", defaults.Auth.Token)
	viper.SetDefault("auth.registration_url", defaults.Auth.RegistrationURL)

	// State defaults
	viper.SetDefault("state.dir", defaults.State.Dir)
	viper.SetDefault("state.backend", defaults.State.Backend)

	// Review defaults
	viper.SetDefault("review.default_time", defaults.Review.DefaultTime)

	// Calendar defaults
	viper.SetDefault("calendar.cache_ttl_seconds", defaults.Calendar.CacheTTLSeconds)
	viper.SetDefault("calendar.cache_size", defaults.Calendar.CacheSize)

	// Images defaults
	viper.SetDefault("images.max_size_bytes", defaults.Images.MaxSizeBytes)
	viper.SetDefault("images.upload_concurrency", defaults.Images.UploadConcurrency)

	// TUI defaults
	viper.SetDefault("tui.notification_seconds", defaults.TUI.NotificationSeconds)
	viper.SetDefault("tui.week_numbers", defaults.TUI.WeekNumbers)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "somectl")
	}
	// Fall back to ~/.config/somectl
	home, err := os.UserHomeDir()
	if err != nil {
		return ".somectl"
	}
	return filepath.Join(home, ".config", "somectl")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns the default directory for client-local state and logs
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "somectl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".somectl"
	}
	return filepath.Join(home, ".local", "state", "somectl")
}
