// Package config provides configuration management for gauntlet.
// It supports loading configuration from YAML files and environment variables,
// with validation and sensible defaults. The package follows XDG Base Directory
// specification for locating configuration files.
package config

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/extension"
)

// Config represents the application configuration.
// Configuration values can be set via YAML file or environment variables,
// with environment variables taking precedence.
type Config struct {
	// General settings
	LogLevel string `yaml:"log_level" validate:"log_level"`
	LogFile  string `yaml:"log_file"`
	NoColor  bool   `yaml:"no_color"`

	// Directories
	ConfigDir string `yaml:"config_dir" validate:"required"`

	// Execution
	InvocationTimeout    time.Duration            `yaml:"invocation_timeout" validate:"gte=0"`
	TeardownPolicy       constants.TeardownPolicy `yaml:"teardown_policy" validate:"teardown_policy"`
	FailFast             bool                     `yaml:"fail_fast"`
	DeactivateConditions []string                 `yaml:"deactivate_conditions" validate:"dive,required"`
	Parameters           map[string]string        `yaml:"parameters" validate:"dive,keys,required,endkeys"`

	// Output
	MetricsFile string `yaml:"metrics_file"`
}

// ConfigPath returns the path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ConfigDir, constants.ConfigFileName)
}

// ExtensionParameters exposes the configuration parameters to extensions and
// execution conditions. Deactivation patterns are published under
// constants.DeactivateConditionsKey unless a parameter already sets that key.
func (c *Config) ExtensionParameters() extension.MapParameters {
	params := make(extension.MapParameters, len(c.Parameters)+1)
	for k, v := range c.Parameters {
		params[k] = v
	}
	if _, set := params[constants.DeactivateConditionsKey]; !set && len(c.DeactivateConditions) > 0 {
		params[constants.DeactivateConditionsKey] = strings.Join(c.DeactivateConditions, ",")
	}
	return params
}

// ParameterKeys returns the configured parameter names in sorted order.
func (c *Config) ParameterKeys() []string {
	keys := make([]string, 0, len(c.Parameters))
	for k := range c.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.DeactivateConditions = append([]string(nil), c.DeactivateConditions...)
	if c.Parameters != nil {
		clone.Parameters = make(map[string]string, len(c.Parameters))
		for k, v := range c.Parameters {
			clone.Parameters[k] = v
		}
	}
	return &clone
}
