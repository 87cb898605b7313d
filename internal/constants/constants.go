// Package constants defines application-wide constants for gauntlet.
// All constants are typed to ensure type safety and prevent accidental misuse.
package constants

import "time"

// Application metadata
const (
	// AppName is the application name used in logs, configs, and user messages.
	AppName string = "gauntlet"
	// AppDescription is a short description of the application.
	AppDescription string = "Lifecycle engine for single test units"
)

// ExitCode represents process exit codes for different termination scenarios.
type ExitCode int

const (
	// ExitSuccess indicates every unit succeeded or was skipped.
	ExitSuccess ExitCode = iota
	// ExitError indicates a general error occurred.
	ExitError
	// ExitValidation indicates invalid input, configuration, or scenario.
	ExitValidation
	// ExitUnitFailures indicates at least one unit failed.
	ExitUnitFailures
	// ExitUserAbort indicates the run was cancelled.
	ExitUserAbort
)

// Int returns the exit code as an int for use with os.Exit().
func (e ExitCode) Int() int {
	return int(e)
}

// Timeouts
const (
	// DefaultInvocationTimeout is the default limit for a unit body. Zero disables it.
	DefaultInvocationTimeout time.Duration = 0
	// MaxInvocationTimeout is the largest accepted invocation timeout.
	MaxInvocationTimeout time.Duration = time.Hour
	// ShutdownTimeout bounds how long the application waits for cleanup.
	ShutdownTimeout time.Duration = 10 * time.Second
)

// File paths relative to user's home directory
const (
	// DefaultConfigDir is the default configuration directory relative to $HOME.
	DefaultConfigDir string = ".config/gauntlet"
	// ConfigFileName is the configuration file name.
	ConfigFileName string = "config.yaml"
)

// Configuration parameter keys visible to extensions.
const (
	// DeactivateConditionsKey lists execution condition name patterns to ignore.
	DeactivateConditionsKey string = "gauntlet.conditions.deactivate"
	// EnvPrefix prefixes every environment variable read by the loader.
	EnvPrefix string = "GAUNTLET_"
	// ParameterEnvPrefix prefixes environment variables mapped to parameters.
	ParameterEnvPrefix string = EnvPrefix + "PARAM_"
)

// TeardownPolicy names how teardown phases react to setup failures.
type TeardownPolicy string

const (
	// TeardownAlways runs every teardown phase regardless of setup failures.
	TeardownAlways TeardownPolicy = "always"
	// TeardownNested runs a teardown phase only when its matching setup phase was reached.
	TeardownNested TeardownPolicy = "nested"
)

// String returns the string representation of the policy.
func (p TeardownPolicy) String() string {
	return string(p)
}

// IsValid reports whether p is a known policy.
func (p TeardownPolicy) IsValid() bool {
	return p == TeardownAlways || p == TeardownNested
}
