package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/config"
	"github.com/somesimplify/somectl/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify somectl configuration",
	Long: `View or modify somectl configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  somectl config set api.base_url https://api.example.com
  somectl config set review.default_time 09:30
  somectl config set state.backend sqlite

Valid keys:
  api.base_url               - Backend root URL
  api.timeout_seconds        - Per-request timeout in seconds
  auth.registration_url      - Link shown when no account is provisioned
  state.dir                  - Directory for local state and logs
  state.backend              - Local state store: file, sqlite
  review.default_time        - Time pre-filled when scheduling (HH:MM)
  calendar.cache_ttl_seconds - How long a fetched month stays fresh (0 disables)
  calendar.cache_size        - Months kept in memory
  images.max_size_bytes      - Largest accepted upload
  images.upload_concurrency  - Parallel uploads
  tui.notification_seconds   - How long notifications stay on screen
  tui.week_numbers           - Show ISO week numbers (true/false)
  logging.enabled            - Write debug.log (true/false)
  logging.level              - debug, info, warn, error

The bearer token is not settable here; export SOMECTL_AUTH_TOKEN instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/somectl/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for invalid values",
	RunE:  runConfigValidate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
}

// settableKeys maps each key accepted by `config set` to its value type.
var settableKeys = map[string]string{
	"api.base_url":               "url",
	"api.timeout_seconds":        "int",
	"auth.registration_url":      "url",
	"state.dir":                  "string",
	"state.backend":              "backend",
	"review.default_time":        "clock",
	"calendar.cache_ttl_seconds": "int",
	"calendar.cache_size":        "int",
	"images.max_size_bytes":      "int",
	"images.upload_concurrency":  "int",
	"tui.notification_seconds":   "int",
	"tui.week_numbers":           "bool",
	"logging.enabled":            "bool",
	"logging.level":              "level",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	if p.Structured() {
		settings := viper.AllSettings()
		if auth, ok := settings["auth"].(map[string]any); ok && auth["token"] != "" {
			auth["token"] = "********"
		}
		return p.Print(settings, nil)
	}

	cfg := config.Get()
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "api:")
	fmt.Fprintf(w, "  base_url: %s\n", cfg.API.BaseURL)
	fmt.Fprintf(w, "  timeout_seconds: %d\n", cfg.API.TimeoutSeconds)
	fmt.Fprintf(w, "  user_agent: %s\n", cfg.API.UserAgent)

	fmt.Fprintln(w, "auth:")
	fmt.Fprintf(w, "  token: %s\n", maskToken(cfg.Auth.Token))
	fmt.Fprintf(w, "  registration_url: %s\n", cfg.Auth.RegistrationURL)

	fmt.Fprintln(w, "state:")
	fmt.Fprintf(w, "  dir: %s\n", cfg.State.ResolvedDir())
	fmt.Fprintf(w, "  backend: %s\n", cfg.State.Backend)

	fmt.Fprintln(w, "review:")
	fmt.Fprintf(w, "  default_time: %s\n", cfg.Review.DefaultTime)

	fmt.Fprintln(w, "calendar:")
	fmt.Fprintf(w, "  cache_ttl_seconds: %d\n", cfg.Calendar.CacheTTLSeconds)
	fmt.Fprintf(w, "  cache_size: %d\n", cfg.Calendar.CacheSize)

	fmt.Fprintln(w, "images:")
	fmt.Fprintf(w, "  max_size_bytes: %d\n", cfg.Images.MaxSizeBytes)
	fmt.Fprintf(w, "  upload_concurrency: %d\n", cfg.Images.UploadConcurrency)

	fmt.Fprintln(w, "tui:")
	fmt.Fprintf(w, "  notification_seconds: %d\n", cfg.TUI.NotificationSeconds)
	fmt.Fprintf(w, "  week_numbers: %v\n", cfg.TUI.WeekNumbers)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(w, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	return "********"
}

// parseSetting validates value for key and converts it to the type stored
// in the config file.
func parseSetting(key, value string) (any, error) {
	keyType, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'somectl config set --help' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	case "url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil, fmt.Errorf("invalid value for %s: expected an http(s) URL", key)
		}
		return value, nil
	case "backend":
		if value != store.BackendFile && value != store.BackendSQLite {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s, %s", key, value, store.BackendFile, store.BackendSQLite)
		}
		return value, nil
	case "clock":
		if !config.IsValidClock(value) {
			return nil, fmt.Errorf("invalid value for %s: expected HH:MM", key)
		}
		return value, nil
	case "level":
		if !config.IsValidLogLevel(value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		return strings.ToLower(value), nil
	}
	return value, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	typedValue, err := parseSetting(key, value)
	if err != nil {
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

const defaultConfigContent = `# somectl configuration
#
# Every key can also be set through the environment with the SOMECTL_ prefix,
# e.g. SOMECTL_AUTH_TOKEN or SOMECTL_API_BASE_URL.

# Scheduling backend
api:
  base_url: http://localhost:8080
  # Per-request timeout in seconds
  timeout_seconds: 30

# The bearer token is best supplied as SOMECTL_AUTH_TOKEN
auth:
  registration_url: http://localhost:3000/register

# Client-local state (selected workspace) and debug logs
state:
  # Empty means $XDG_STATE_HOME/somectl
  dir: ""
  # file or sqlite
  backend: file

review:
  # Time of day pre-filled when scheduling a draft (HH:MM)
  default_time: "12:00"

calendar:
  # Seconds a fetched month is reused (0 disables the cache)
  cache_ttl_seconds: 60
  cache_size: 12

images:
  # Largest accepted upload in bytes (5 MiB)
  max_size_bytes: 5242880
  upload_concurrency: 4

tui:
  notification_seconds: 4
  week_numbers: false

logging:
  enabled: true
  # debug, info, warn, error
  level: info
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'somectl config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize somectl's behavior.")

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	w := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	printSearchPaths(w)
	return nil
}

func printSearchPaths(w io.Writer) {
	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(w, "  2. $HOME/.config/somectl/config.yaml\n")
	fmt.Fprintf(w, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(w, "\nEnvironment variables: SOMECTL_* (e.g., SOMECTL_AUTH_TOKEN)")
}
