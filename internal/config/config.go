package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the chatclean configuration
type Config struct {
	Source string      `yaml:"source"`
	Target string      `yaml:"target"`
	Chats  string      `yaml:"chats"`
	Watch  WatchConfig `yaml:"watch"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	DebounceSeconds int `yaml:"debounce_seconds"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Source: DefaultSourcePath(),
		Target: "messages.db",
		Chats:  "all",
		Watch:  WatchConfig{DebounceSeconds: 2},
	}
}

// DefaultSourcePath returns the standard chat.db location, honoring the
// CHATCLEAN_SOURCE_DB override (useful for tests and copied archives).
func DefaultSourcePath() string {
	if override := os.Getenv("CHATCLEAN_SOURCE_DB"); override != "" {
		return os.ExpandEnv(override)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "chat.db"
	}
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// GetConfigDir returns the XDG-compliant config directory
func GetConfigDir() (string, error) {
	// Explicit override (useful for tests and portable installs)
	if override := os.Getenv("CHATCLEAN_CONFIG_DIR"); override != "" {
		return override, nil
	}

	var base string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		base = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "chatclean"), nil
}

// Load loads config from the config file, falling back to defaults when the
// file does not exist.
func Load() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Watch.DebounceSeconds <= 0 {
		cfg.Watch.DebounceSeconds = 2
	}

	return cfg, nil
}

// Save saves the config to the config file
func (c *Config) Save() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
