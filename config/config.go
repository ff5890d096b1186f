// Package config loads simplc's tunable limits and tool discovery settings
// from an optional TOML file, falling back to built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents simplc's configuration.
type Config struct {
	// Limits on lexical and hash-table structures.
	Limits struct {
		MaxIDLength         int     `toml:"max_id_length"`
		MaxMessageLength     int     `toml:"max_message_length"`
		InitialStringBuffer int     `toml:"initial_string_buffer"`
		HashTableMaxLoad    float64 `toml:"hash_table_max_load"`
	} `toml:"limits"`

	// Diagnostics formatting.
	Diagnostics struct {
		Color string `toml:"color"` // auto | always | never
	} `toml:"diagnostics"`

	// Assemble controls the external Jasmin invocation.
	Assemble struct {
		JasminJar string        `toml:"jasmin_jar"`
		Timeout   time.Duration `toml:"timeout"`
		Skip      bool          `toml:"skip"`
	} `toml:"assemble"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Limits.MaxIDLength = 256
	cfg.Limits.MaxMessageLength = 256
	cfg.Limits.InitialStringBuffer = 1024
	cfg.Limits.HashTableMaxLoad = 0.75

	cfg.Diagnostics.Color = "auto"

	cfg.Assemble.JasminJar = ""
	cfg.Assemble.Timeout = 30 * time.Second
	cfg.Assemble.Skip = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "simplc")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "simplc.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "simplc")

	default:
		return "simplc.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "simplc.toml"
	}

	return filepath.Join(configDir, "simplc.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "simplc", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "simplc", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is not
// an error: the defaults are returned as-is.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
