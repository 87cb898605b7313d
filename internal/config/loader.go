package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
)

// Loader handles configuration loading from multiple sources.
// It loads configuration in order: defaults -> file -> environment variables,
// with later sources overriding earlier ones.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
// If configPath is empty, only defaults and environment variables are used.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load loads configuration from file and environment.
// The loading order is: defaults -> file -> environment variables.
// Returns an error if the file exists but cannot be parsed.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, err
		}
	}

	l.loadFromEnv(cfg)
	normalize(cfg)

	return cfg, nil
}

// LoadAndValidate loads configuration, applies overrides in order and
// validates the result.
func (l *Loader) LoadAndValidate(overrides ...func(*Config)) (*Config, error) {
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		if override != nil {
			override(cfg)
		}
	}
	normalize(cfg)

	if err := NewValidator().ValidateOrError(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads config from YAML file. A missing file leaves the defaults.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.Configuration, "failed to read config file", err).
			WithOp("config.loadFromFile")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(errors.Configuration, "failed to parse config file", err).
			WithOp("config.loadFromFile")
	}
	if cfg.Parameters == nil {
		cfg.Parameters = map[string]string{}
	}

	return nil
}

// normalize canonicalizes values that are matched case-insensitively.
func normalize(cfg *Config) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.TeardownPolicy = constants.TeardownPolicy(strings.ToLower(strings.TrimSpace(string(cfg.TeardownPolicy))))
}

// loadFromEnv loads config from environment variables.
// Environment variables take precedence over file config.
func (l *Loader) loadFromEnv(cfg *Config) {
	if v := os.Getenv(constants.EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(constants.EnvPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(constants.EnvPrefix + "NO_COLOR"); v != "" {
		cfg.NoColor = parseBool(v)
	}
	if v := os.Getenv(constants.EnvPrefix + "CONFIG_DIR"); v != "" {
		cfg.ConfigDir = v
	}

	if v := os.Getenv(constants.EnvPrefix + "INVOCATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InvocationTimeout = d
		}
	}
	if v := os.Getenv(constants.EnvPrefix + "TEARDOWN_POLICY"); v != "" {
		cfg.TeardownPolicy = constants.TeardownPolicy(v)
	}
	if v := os.Getenv(constants.EnvPrefix + "FAIL_FAST"); v != "" {
		cfg.FailFast = parseBool(v)
	}
	if v := os.Getenv(constants.EnvPrefix + "DEACTIVATE_CONDITIONS"); v != "" {
		cfg.DeactivateConditions = splitList(v)
	}
	if v := os.Getenv(constants.EnvPrefix + "METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}

	// GAUNTLET_PARAM_<NAME>=value sets parameter "name".
	paramPrefix := constants.ParameterEnvPrefix
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, paramPrefix) || len(key) == len(paramPrefix) {
			continue
		}
		if cfg.Parameters == nil {
			cfg.Parameters = map[string]string{}
		}
		cfg.Parameters[strings.ToLower(strings.TrimPrefix(key, paramPrefix))] = value
	}
}

// parseBool parses a string as a boolean value.
// Accepts: true, 1, yes, on (case-insensitive) as true.
// All other values are treated as false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SaveConfig saves the configuration to a YAML file.
// The directory is created if it doesn't exist. An empty path writes to
// cfg.ConfigPath().
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = cfg.ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.Configuration, "failed to create config directory", err).
			WithOp("config.SaveConfig")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.Configuration, "failed to marshal config", err).
			WithOp("config.SaveConfig")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.Configuration, "failed to write config file", err).
			WithOp("config.SaveConfig")
	}

	return nil
}
