package config

import (
	"os"
	"path/filepath"

	"github.com/tungetti/gauntlet/internal/constants"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		ConfigDir:         defaultConfigDir(),
		InvocationTimeout: constants.DefaultInvocationTimeout,
		TeardownPolicy:    constants.TeardownAlways,
		Parameters:        map[string]string{},
	}
}

// defaultConfigDir returns the XDG config directory for gauntlet.
// Falls back to ~/.config/gauntlet if XDG_CONFIG_HOME is not set.
func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultConfigDir
	}
	return filepath.Join(home, constants.DefaultConfigDir)
}
