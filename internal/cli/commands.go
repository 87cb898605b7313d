package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tungetti/gauntlet/internal/app"
	"github.com/tungetti/gauntlet/internal/config"
	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/runner"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code constants.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, info BuildInfo, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(info)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return constants.ExitSuccess.Int()
	}

	code := ExitCodeFor(err)
	if code != constants.ExitUnitFailures {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code.Int()
}

// ExitCodeFor maps an error returned by a command to an exit code.
func ExitCodeFor(err error) constants.ExitCode {
	if err == nil {
		return constants.ExitSuccess
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch errors.GetCode(err) {
	case errors.Configuration, errors.Validation, errors.Scenario:
		return constants.ExitValidation
	default:
		return constants.ExitError
	}
}

// NewRootCmd builds the gauntlet command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	global := &GlobalFlags{}

	cmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         constants.AppDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return global.validate()
		},
	}

	global.register(cmd.PersistentFlags())

	cmd.AddCommand(newRunCmd(global, info))
	cmd.AddCommand(newValidateCmd(global, info))
	cmd.AddCommand(newConfigCmd(global))
	cmd.AddCommand(newVersionCmd(info))

	return cmd
}

func newApp(cmd *cobra.Command, global *GlobalFlags, info BuildInfo, configure func(*config.Config)) (*app.App, error) {
	opts := app.DefaultOptions()
	opts.Version = info.Version
	opts.BuildTime = info.BuildTime
	opts.GitCommit = info.GitCommit
	opts.LogOutput = cmd.ErrOrStderr()
	opts.Configure = func(cfg *config.Config) {
		global.apply(cfg)
		if configure != nil {
			configure(cfg)
		}
	}

	a := app.New(opts)
	if err := a.Initialize(cmd.Context(), global.configPath()); err != nil {
		return nil, err
	}
	return a, nil
}

func newRunCmd(global *GlobalFlags, info BuildInfo) *cobra.Command {
	flags := &RunFlags{}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Execute the units of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			params, err := flags.parameters()
			if err != nil {
				return err
			}

			a, err := newApp(cmd, global, info, func(cfg *config.Config) {
				flags.apply(cfg, params)
			})
			if err != nil {
				return err
			}
			defer a.Shutdown() //nolint:errcheck

			report, err := a.RunScenario(cmd.Context(), args[0])
			if err != nil && report.Total == 0 {
				return err
			}

			writeReport(cmd.OutOrStdout(), report, a.Container().GetConfig().NoColor)

			outcome := runOutcome(report)
			if err != nil {
				if outcome == nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return outcome
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// runOutcome maps a finished run to the error carrying its exit code.
func runOutcome(report runner.Report) error {
	switch {
	case report.Cancelled:
		return &ExitError{Code: constants.ExitUserAbort, Err: errors.ErrCancelled}
	case !report.Success():
		return &ExitError{Code: constants.ExitUnitFailures,
			Err: fmt.Errorf("%d failed, %d aborted", report.Failed, report.Aborted)}
	}
	return nil
}

func newValidateCmd(global *GlobalFlags, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Check configuration and scenario files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, global, info, nil)
			if err != nil {
				return err
			}
			defer a.Shutdown() //nolint:errcheck

			out := cmd.OutOrStdout()
			var firstErr error
			for _, path := range args {
				plan, err := a.LoadPlan(path)
				if err != nil {
					fmt.Fprintf(out, "%s: invalid: %v\n", path, err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintf(out, "%s: ok (%s, %d units, %d extensions)\n",
					path, plan.Name, len(plan.Units), plan.Registry.Len())
			}
			return firstErr
		},
	}
}

func newConfigCmd(global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(global.configPath()).LoadAndValidate(global.apply)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(errors.Configuration, "failed to encode configuration", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.configPath()
			if !force && fileExists(path) {
				return errors.Newf(errors.Configuration, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\ncommit: %s\nbuilt: %s\n",
				constants.AppName, info.Version, info.GitCommit, info.BuildTime)
			return nil
		},
	}
}
