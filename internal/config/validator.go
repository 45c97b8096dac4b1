package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an OpenAI API key format
func (v *Validator) ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if !strings.HasPrefix(key, "sk-") {
		return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
	}
	return nil
}

// ValidateUserID validates a user identifier. IDs end up in file names and
// SQL rows, so only a conservative character set is allowed.
func (v *Validator) ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	if !pattern.MatchString(id) {
		return fmt.Errorf("invalid user id: %s (allowed: letters, digits, _ and -)", id)
	}
	return nil
}

// ValidateIntentMode validates the intent detection mode
func (v *Validator) ValidateIntentMode(mode string) error {
	if mode == "" {
		return nil // Use default
	}

	validModes := []string{"regex", "llm"}
	for _, valid := range validModes {
		if mode == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid intent mode: %s (must be one of: %s)", mode, strings.Join(validModes, ", "))
}

// ValidatePort validates a TCP port
func (v *Validator) ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateUserID(cfg.User.ID); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidatePort(cfg.Channel.Port); err != nil {
		errors = append(errors, fmt.Errorf("channel: %w", err))
	}

	if err := v.ValidateIntentMode(cfg.Intent.Mode); err != nil {
		errors = append(errors, err)
	}
	if cfg.Intent.Mode == "llm" {
		if err := v.ValidateAPIKey(cfg.Intent.APIKey); err != nil {
			errors = append(errors, fmt.Errorf("intent: %w", err))
		}
	}

	if cfg.Reminders.IntervalSeconds < 0 {
		errors = append(errors, fmt.Errorf("reminders.interval_seconds must be >= 0"))
	}

	if cfg.Logging.Level != "" {
		if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
			errors = append(errors, err)
		}
	}

	return errors
}
