package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
	testutil "github.com/tungetti/gauntlet/internal/testing"
)

// TestDefaultConfig tests that DefaultConfig returns valid defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.False(t, cfg.NoColor)
	assert.Equal(t, time.Duration(0), cfg.InvocationTimeout)
	assert.Equal(t, constants.TeardownAlways, cfg.TeardownPolicy)
	assert.False(t, cfg.FailFast)
	assert.Empty(t, cfg.DeactivateConditions)
	assert.NotNil(t, cfg.Parameters)
	assert.Empty(t, cfg.MetricsFile)
	assert.Empty(t, NewValidator().Validate(cfg))
}

// TestXDGConfigDir tests XDG_CONFIG_HOME compliance
func TestXDGConfigDir(t *testing.T) {
	testutil.SetEnv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/tmp/test-xdg-config", "gauntlet"), cfg.ConfigDir)
	assert.Equal(t, filepath.Join(cfg.ConfigDir, "config.yaml"), cfg.ConfigPath())
}

// TestXDGFallback tests fallback when XDG_CONFIG_HOME is not set
func TestXDGFallback(t *testing.T) {
	testutil.SetEnv(t, "XDG_CONFIG_HOME", "")

	cfg := DefaultConfig()
	assert.True(t, strings.HasSuffix(cfg.ConfigDir, filepath.Join(".config", "gauntlet")))
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	original.DeactivateConditions = []string{"os.*"}
	original.Parameters["env"] = "ci"

	clone := original.Clone()
	clone.DeactivateConditions[0] = "changed"
	clone.Parameters["env"] = "prod"
	clone.LogLevel = "debug"

	assert.Equal(t, "os.*", original.DeactivateConditions[0])
	assert.Equal(t, "ci", original.Parameters["env"])
	assert.Equal(t, "info", original.LogLevel)
}

func TestExtensionParameters(t *testing.T) {
	t.Run("publishes deactivation patterns", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Parameters["env"] = "ci"
		cfg.DeactivateConditions = []string{"os.*", "slow"}

		params := cfg.ExtensionParameters()
		v, ok := params.Get(constants.DeactivateConditionsKey)
		assert.True(t, ok)
		assert.Equal(t, "os.*,slow", v)
		v, _ = params.Get("env")
		assert.Equal(t, "ci", v)
	})

	t.Run("explicit parameter wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Parameters[constants.DeactivateConditionsKey] = "*"
		cfg.DeactivateConditions = []string{"os.*"}

		v, _ := cfg.ExtensionParameters().Get(constants.DeactivateConditionsKey)
		assert.Equal(t, "*", v)
	})

	t.Run("no patterns", func(t *testing.T) {
		_, ok := DefaultConfig().ExtensionParameters().Get(constants.DeactivateConditionsKey)
		assert.False(t, ok)
	})

	t.Run("does not alias the config", func(t *testing.T) {
		cfg := DefaultConfig()
		params := cfg.ExtensionParameters()
		params["new"] = "x"
		assert.NotContains(t, cfg.Parameters, "new")
	})
}

func TestParameterKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parameters = map[string]string{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, []string{"a", "b", "c"}, cfg.ParameterKeys())
}

func TestLoaderLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoaderLoadFromFile(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", testutil.SampleConfigYAML())

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, 2*time.Second, cfg.InvocationTimeout)
	assert.Equal(t, constants.TeardownNested, cfg.TeardownPolicy)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, []string{"os.*"}, cfg.DeactivateConditions)
	assert.Equal(t, map[string]string{"env": "ci", "region": "eu-west-1"}, cfg.Parameters)
}

func TestLoaderFileNotFound(t *testing.T) {
	cfg, err := NewLoader("/nonexistent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoaderInvalidYAML(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", "log_level: [unclosed")

	_, err := NewLoader(path).Load()
	testutil.AssertErrorCode(t, err, errors.Configuration)
	testutil.AssertErrorContains(t, err, "failed to parse config file")
}

func TestLoaderEnvironmentOverrides(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", testutil.SampleConfigYAML())
	testutil.SetEnvs(t, map[string]string{
		"GAUNTLET_LOG_LEVEL":             "warn",
		"GAUNTLET_LOG_FILE":              "/tmp/gauntlet.log",
		"GAUNTLET_NO_COLOR":              "false",
		"GAUNTLET_CONFIG_DIR":            "/tmp/gauntlet-config",
		"GAUNTLET_INVOCATION_TIMEOUT":    "30s",
		"GAUNTLET_TEARDOWN_POLICY":       "ALWAYS",
		"GAUNTLET_FAIL_FAST":             "no",
		"GAUNTLET_DEACTIVATE_CONDITIONS": "net.*, ,slow",
		"GAUNTLET_METRICS_FILE":          "/tmp/gauntlet.prom",
		"GAUNTLET_PARAM_ENV":             "staging",
		"GAUNTLET_PARAM_BUILD_ID":        "42",
	})

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/tmp/gauntlet.log", cfg.LogFile)
	assert.False(t, cfg.NoColor)
	assert.Equal(t, "/tmp/gauntlet-config", cfg.ConfigDir)
	assert.Equal(t, 30*time.Second, cfg.InvocationTimeout)
	assert.Equal(t, constants.TeardownAlways, cfg.TeardownPolicy)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, []string{"net.*", "slow"}, cfg.DeactivateConditions)
	assert.Equal(t, "/tmp/gauntlet.prom", cfg.MetricsFile)
	assert.Equal(t, "staging", cfg.Parameters["env"])
	assert.Equal(t, "42", cfg.Parameters["build_id"])
	assert.Equal(t, "eu-west-1", cfg.Parameters["region"])
}

func TestLoaderWithInvalidDuration(t *testing.T) {
	testutil.SetEnv(t, "GAUNTLET_INVOCATION_TIMEOUT", "soon")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultInvocationTimeout, cfg.InvocationTimeout)
}

func TestLoaderNormalizesCase(t *testing.T) {
	testutil.SetEnvs(t, map[string]string{
		"GAUNTLET_LOG_LEVEL":       "DEBUG",
		"GAUNTLET_TEARDOWN_POLICY": "Nested",
	})

	cfg, err := NewLoader("").LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, constants.TeardownNested, cfg.TeardownPolicy)
}

func TestLoaderNormalizesFileValues(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", "log_level: Warn\nteardown_policy: ALWAYS\n")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, constants.TeardownAlways, cfg.TeardownPolicy)
}

func TestLoaderLoadAndValidateOverrides(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", testutil.SampleConfigYAML())

	cfg, err := NewLoader(path).LoadAndValidate(
		func(c *Config) { c.LogLevel = "ERROR" },
		nil,
		func(c *Config) { c.FailFast = false },
	)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.FailFast)

	_, err = NewLoader(path).LoadAndValidate(func(c *Config) { c.TeardownPolicy = "sometimes" })
	testutil.AssertErrorCode(t, err, errors.Configuration)
	testutil.AssertErrorContains(t, err, "teardown_policy")
}

func TestLoaderLoadAndValidate(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", testutil.SampleConfigYAML())

	cfg, err := NewLoader(path).LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoaderLoadAndValidateInvalid(t *testing.T) {
	path := testutil.TempFile(t, "config.yaml", testutil.InvalidConfigYAML())

	_, err := NewLoader(path).LoadAndValidate()
	testutil.AssertErrorCode(t, err, errors.Configuration)
	testutil.AssertErrorContains(t, err, "log_level")
	testutil.AssertErrorContains(t, err, "teardown_policy")
	testutil.AssertErrorContains(t, err, "invocation_timeout")
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"invalid log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"fatal log level", func(c *Config) { c.LogLevel = "fatal" }, "log_level"},
		{"negative timeout", func(c *Config) { c.InvocationTimeout = -time.Second }, "invocation_timeout"},
		{"timeout too long", func(c *Config) { c.InvocationTimeout = 2 * time.Hour }, "invocation_timeout"},
		{"teardown policy", func(c *Config) { c.TeardownPolicy = "sometimes" }, "teardown_policy"},
		{"empty teardown policy", func(c *Config) { c.TeardownPolicy = "" }, "teardown_policy"},
		{"empty config dir", func(c *Config) { c.ConfigDir = "" }, "config_dir"},
		{"empty deactivation pattern", func(c *Config) { c.DeactivateConditions = []string{"ok", ""} }, "deactivate_conditions[1]"},
		{"log file directory", func(c *Config) { c.LogFile = "/nonexistent/dir/gauntlet.log" }, "log_file"},
		{"metrics file directory", func(c *Config) { c.MetricsFile = "/nonexistent/dir/gauntlet.prom" }, "metrics_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			errs := NewValidator().Validate(cfg)
			require.Len(t, errs, 1, "errors: %v", errs)
			var ve *ValidationError
			require.ErrorAs(t, errs[0], &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.TeardownPolicy = "sometimes"
	cfg.InvocationTimeout = -time.Second

	errs := NewValidator().Validate(cfg)
	assert.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), `invalid log level "loud": must be one of: debug, info, warn, error`)
}

func TestValidatorNil(t *testing.T) {
	assert.Len(t, NewValidator().Validate(nil), 1)
}

func TestValidatorLogFileCurrentDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = "gauntlet.log"
	cfg.MetricsFile = filepath.Join(t.TempDir(), "gauntlet.prom")
	assert.Empty(t, NewValidator().Validate(cfg))
}

func TestValidatorValidateOrError(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateOrError(DefaultConfig()))

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	err := v.ValidateOrError(cfg)
	testutil.AssertErrorCode(t, err, errors.Configuration)
	testutil.AssertErrorContains(t, err, "config.Validate")
}

func TestValidateField(t *testing.T) {
	assert.NoError(t, ValidateField("log_level", "DEBUG"))
	assert.NoError(t, ValidateField("teardown_policy", "nested"))
	assert.NoError(t, ValidateField("unknown", "anything"))

	err := ValidateField("log_level", "loud")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "log_level", ve.Field)
	assert.Contains(t, ve.Message, "must be one of: debug, info, warn, error")

	err = ValidateField("teardown_policy", "sometimes")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, `invalid teardown policy "sometimes": must be one of: always, nested`, ve.Message)
}

func TestValidatorAcceptsAnyLevelCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "WARN"
	assert.Empty(t, NewValidator().Validate(cfg))
}

func TestValidationErrorString(t *testing.T) {
	err := &ValidationError{Field: "log_level", Message: "bad"}
	assert.Equal(t, "config validation: log_level: bad", err.Error())
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "on", " On "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "0", "no", "off", "", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfigDir = filepath.Join(t.TempDir(), "nested", "gauntlet")
	cfg.TeardownPolicy = constants.TeardownNested
	cfg.InvocationTimeout = 5 * time.Second
	cfg.Parameters["env"] = "ci"

	require.NoError(t, SaveConfig(cfg, ""))
	_, err := os.Stat(cfg.ConfigPath())
	require.NoError(t, err)

	loaded, err := NewLoader(cfg.ConfigPath()).LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, constants.TeardownNested, loaded.TeardownPolicy)
	assert.Equal(t, 5*time.Second, loaded.InvocationTimeout)
	assert.Equal(t, "ci", loaded.Parameters["env"])
}

func TestSaveConfigExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "custom.yaml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))
	testutil.AssertFileContains(t, path, "teardown_policy: always")
}
