// Package cli provides the gauntlet command tree. Commands are built on cobra;
// global flags override the loaded configuration for a single invocation.
package cli

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/tungetti/gauntlet/internal/config"
	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
)

// GlobalFlags holds flags common to all commands.
type GlobalFlags struct {
	// ConfigFile specifies a custom configuration file path.
	ConfigFile string

	// LogFile specifies the path to write log output.
	LogFile string

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string

	// NoColor disables colored terminal output.
	NoColor bool
}

func (g *GlobalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.ConfigFile, "config", "c", "", "Path to configuration file")
	fs.StringVar(&g.LogFile, "log-file", "", "Write logs to this file as well")
	fs.StringVarP(&g.LogLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
}

// configPath returns the configuration file to load.
func (g *GlobalFlags) configPath() string {
	if g.ConfigFile != "" {
		return g.ConfigFile
	}
	return config.DefaultConfig().ConfigPath()
}

// validate checks flag values that map onto validated configuration fields.
func (g *GlobalFlags) validate() error {
	if g.LogLevel == "" {
		return nil
	}
	if err := config.ValidateField("log_level", g.LogLevel); err != nil {
		return errors.Wrap(errors.Validation, "invalid --log-level", err)
	}
	return nil
}

// apply overrides cfg with the flags that were set.
func (g *GlobalFlags) apply(cfg *config.Config) {
	if g.LogFile != "" {
		cfg.LogFile = g.LogFile
	}
	if g.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(g.LogLevel)
	}
	if g.NoColor {
		cfg.NoColor = true
	}
}

// RunFlags holds run command specific flags.
type RunFlags struct {
	// FailFast aborts the remaining units after the first failure.
	FailFast bool

	// TeardownPolicy selects which teardown phases run after a setup failure.
	TeardownPolicy string

	// Timeout bounds each unit body invocation.
	Timeout time.Duration

	// Deactivate lists condition name patterns to ignore.
	Deactivate []string

	// Params holds key=value configuration parameters.
	Params []string

	// MetricsFile receives Prometheus metrics after the run.
	MetricsFile string

	set func(name string) bool
}

func (r *RunFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&r.FailFast, "fail-fast", false, "Abort remaining units after the first failure")
	fs.StringVar(&r.TeardownPolicy, "teardown", "", "Teardown policy after setup failures (always, nested)")
	fs.DurationVar(&r.Timeout, "timeout", 0, "Time limit for each unit body (0 disables)")
	fs.StringSliceVarP(&r.Deactivate, "deactivate", "d", nil, "Ignore execution conditions matching these patterns")
	fs.StringArrayVarP(&r.Params, "param", "p", nil, "Configuration parameter as key=value (repeatable)")
	fs.StringVar(&r.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	r.set = func(name string) bool { return fs.Changed(name) }
}

// validate checks flag values that map onto validated configuration fields.
func (r *RunFlags) validate() error {
	if r.TeardownPolicy == "" {
		return nil
	}
	if err := config.ValidateField("teardown_policy", strings.ToLower(r.TeardownPolicy)); err != nil {
		return errors.Wrap(errors.Validation, "invalid --teardown", err)
	}
	return nil
}

// parameters parses the key=value parameters.
func (r *RunFlags) parameters() (map[string]string, error) {
	params := make(map[string]string, len(r.Params))
	for _, p := range r.Params {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.Validation, "invalid parameter %q: expected key=value", p)
		}
		params[key] = value
	}
	return params, nil
}

// apply overrides cfg with the flags that were set.
func (r *RunFlags) apply(cfg *config.Config, params map[string]string) {
	changed := func(name string) bool { return r.set != nil && r.set(name) }

	if changed("fail-fast") {
		cfg.FailFast = r.FailFast
	}
	if r.TeardownPolicy != "" {
		cfg.TeardownPolicy = constants.TeardownPolicy(strings.ToLower(r.TeardownPolicy))
	}
	if changed("timeout") {
		cfg.InvocationTimeout = r.Timeout
	}
	if len(r.Deactivate) > 0 {
		cfg.DeactivateConditions = append(cfg.DeactivateConditions, r.Deactivate...)
	}
	if r.MetricsFile != "" {
		cfg.MetricsFile = r.MetricsFile
	}
	if len(params) > 0 && cfg.Parameters == nil {
		cfg.Parameters = make(map[string]string, len(params))
	}
	for k, v := range params {
		cfg.Parameters[k] = v
	}
}
