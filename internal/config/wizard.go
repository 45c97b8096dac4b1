package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== Voice Agent Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	// User identity
	fmt.Println("User:")
	for {
		fmt.Print("User ID: ")
		id, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if err := validator.ValidateUserID(id); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.User.ID = id
		break
	}

	fmt.Print("Display name (press Enter to skip): ")
	name, err := w.readLine()
	if err != nil {
		return nil, err
	}
	cfg.User.Name = name

	fmt.Println()

	// Push channel
	fmt.Println("Push channel:")
	fmt.Printf("Port [%d]: ", cfg.Channel.Port)
	portStr, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if portStr != "" {
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil || validator.ValidatePort(port) != nil {
			fmt.Printf("Warning: invalid port %q, using default (%d)\n", portStr, cfg.Channel.Port)
		} else {
			cfg.Channel.Port = port
		}
	}

	fmt.Println()

	// Intent detection
	fmt.Println("Intent detection options:")
	fmt.Println("  regex - Pattern-based routing, no API calls (default)")
	fmt.Println("  llm   - Model-based routing via OpenAI")
	fmt.Print("Intent mode [regex]: ")
	mode, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if mode == "" {
		mode = "regex"
	}
	if err := validator.ValidateIntentMode(mode); err != nil {
		fmt.Printf("Warning: %v, using default (regex)\n", err)
		mode = "regex"
	}
	cfg.Intent.Mode = mode

	if mode == "llm" {
		for {
			fmt.Print("OpenAI API Key (press Enter to read OPENAI_API_KEY at startup): ")
			key, err := w.readLine()
			if err != nil {
				return nil, err
			}

			if key == "" {
				break
			}

			if err := validator.ValidateAPIKey(key); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}

			cfg.Intent.APIKey = key
			break
		}
	}

	fmt.Println()

	// Log Level
	fmt.Println("Logging:")
	fmt.Print("Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Println()
	fmt.Println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
