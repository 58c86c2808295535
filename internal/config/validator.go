package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "api.timeout_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// clockTimeRegex matches a 24h HH:MM time of day
var clockTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// IsValidLogLevel reports whether level is an accepted log level
func IsValidLogLevel(level string) bool {
	return slices.Contains(ValidLogLevels(), strings.ToLower(level))
}

// IsValidClock reports whether s is a 24h HH:MM time of day
func IsValidClock(s string) bool {
	return clockTimeRegex.MatchString(s)
}

// ValidStateBackends returns the list of valid state store backends
func ValidStateBackends() []string {
	return []string{"file", "sqlite"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateAuth()...)
	errors = append(errors, c.validateState()...)
	errors = append(errors, c.validateReview()...)
	errors = append(errors, c.validateCalendar()...)
	errors = append(errors, c.validateImages()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	if err := validateHTTPURL(c.API.BaseURL); err != "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: err,
		})
	}

	if c.API.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	const maxTimeoutSeconds = 600
	if c.API.TimeoutSeconds > maxTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxTimeoutSeconds),
		})
	}

	return errors
}

func (c *Config) validateAuth() []ValidationError {
	var errors []ValidationError

	// Registration URL is optional; when present it must be usable in a browser
	if c.Auth.RegistrationURL != "" {
		if err := validateHTTPURL(c.Auth.RegistrationURL); err != "" {
			errors = append(errors, ValidationError{
				Field:   "auth.registration_url",
				Value:   c.Auth.RegistrationURL,
				Message: err,
			})
		}
	}

	if strings.ContainsAny(c.Auth.Token, " \t\r\n") {
		errors = append(errors, ValidationError{
			Field:   "auth.token",
			Value:   "<redacted>",
			Message: "must not contain whitespace",
		})
	}

	return errors
}

func (c *Config) validateState() []ValidationError {
	var errors []ValidationError

	if c.State.Backend != "" && !slices.Contains(ValidStateBackends(), c.State.Backend) {
		errors = append(errors, ValidationError{
			Field:   "state.backend",
			Value:   c.State.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStateBackends(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateReview() []ValidationError {
	var errors []ValidationError

	if !IsValidClock(c.Review.DefaultTime) {
		errors = append(errors, ValidationError{
			Field:   "review.default_time",
			Value:   c.Review.DefaultTime,
			Message: "must be a 24h time in HH:MM format",
		})
	}

	return errors
}

func (c *Config) validateCalendar() []ValidationError {
	var errors []ValidationError

	if c.Calendar.CacheTTLSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "calendar.cache_ttl_seconds",
			Value:   c.Calendar.CacheTTLSeconds,
			Message: "must be non-negative",
		})
	}

	if c.Calendar.CacheSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "calendar.cache_size",
			Value:   c.Calendar.CacheSize,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateImages() []ValidationError {
	var errors []ValidationError

	if c.Images.MaxSizeBytes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "images.max_size_bytes",
			Value:   c.Images.MaxSizeBytes,
			Message: "must be positive",
		})
	}

	if c.Images.UploadConcurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "images.upload_concurrency",
			Value:   c.Images.UploadConcurrency,
			Message: "must be at least 1",
		})
	}

	// Reasonable upper bound so a large folder doesn't open hundreds of connections
	const maxUploadConcurrency = 32
	if c.Images.UploadConcurrency > maxUploadConcurrency {
		errors = append(errors, ValidationError{
			Field:   "images.upload_concurrency",
			Value:   c.Images.UploadConcurrency,
			Message: fmt.Sprintf("exceeds maximum of %d", maxUploadConcurrency),
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.NotificationSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.notification_seconds",
			Value:   c.TUI.NotificationSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateHTTPURL returns an empty string when raw is an absolute http(s) URL,
// otherwise a description of the problem.
func validateHTTPURL(raw string) string {
	if raw == "" {
		return "is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "must be a valid URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must use http or https"
	}
	if u.Host == "" {
		return "must include a host"
	}
	return ""
}
