package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main voice agent configuration
type Config struct {
	// User identifies the single tenant this daemon serves
	User UserConfig `json:"user" mapstructure:"user"`

	// Channel holds push channel server configuration
	Channel ChannelConfig `json:"channel" mapstructure:"channel"`

	// Prompts holds prompt module configuration
	Prompts PromptsConfig `json:"prompts" mapstructure:"prompts"`

	// Intent holds intent detection configuration
	Intent IntentConfig `json:"intent" mapstructure:"intent"`

	// Reminders holds reminder scheduling configuration
	Reminders RemindersConfig `json:"reminders" mapstructure:"reminders"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// UserConfig identifies the assisted user
type UserConfig struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// ChannelConfig holds push channel server configuration
type ChannelConfig struct {
	Port int    `json:"port" mapstructure:"port"`
	Host string `json:"host" mapstructure:"host"`
}

// PromptsConfig holds prompt module configuration
type PromptsConfig struct {
	ModulesDir string `json:"modules_dir" mapstructure:"modules_dir"`
}

// IntentConfig holds intent detection configuration
type IntentConfig struct {
	Mode   string `json:"mode" mapstructure:"mode"` // regex, llm
	Model  string `json:"model" mapstructure:"model"`
	APIKey string `json:"api_key" mapstructure:"api_key"`
}

// RemindersConfig holds reminder scheduler configuration
type RemindersConfig struct {
	IntervalSeconds int `json:"interval_seconds" mapstructure:"interval_seconds"`
}

// Interval returns the scheduler poll interval
func (r RemindersConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{
			ID:   "default",
			Name: "",
		},
		Channel: ChannelConfig{
			Port: 8090,
			Host: "0.0.0.0",
		},
		Intent: IntentConfig{
			Mode:  "regex",
			Model: "gpt-4o-mini",
		},
		Reminders: RemindersConfig{
			IntervalSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.User.ID == "" {
		return fmt.Errorf("user id is required")
	}

	if c.Channel.Port <= 0 || c.Channel.Port > 65535 {
		return fmt.Errorf("invalid channel port: %d", c.Channel.Port)
	}

	switch c.Intent.Mode {
	case "regex":
	case "llm":
		if c.Intent.APIKey == "" {
			return fmt.Errorf("intent api_key is required when intent mode is llm")
		}
		if c.Intent.Model == "" {
			return fmt.Errorf("intent model is required when intent mode is llm")
		}
	default:
		return fmt.Errorf("invalid intent mode: %s (must be: regex, llm)", c.Intent.Mode)
	}

	if c.Reminders.IntervalSeconds < 0 {
		return fmt.Errorf("invalid reminder interval: %d", c.Reminders.IntervalSeconds)
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
