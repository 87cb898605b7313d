package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tungetti/gauntlet/internal/config"
	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/invoke"
	"github.com/tungetti/gauntlet/internal/logging"
	"github.com/tungetti/gauntlet/internal/metrics"
	"github.com/tungetti/gauntlet/internal/runner"
	"github.com/tungetti/gauntlet/internal/scenario"
)

// App represents the main application with its dependencies and lifecycle.
type App struct {
	container *Container
	lifecycle *Lifecycle
	version   string
	buildTime string
	gitCommit string
	logOutput io.Writer
	configure func(*config.Config)
}

// Options configures the application.
type Options struct {
	Version         string
	BuildTime       string
	GitCommit       string
	ShutdownTimeout time.Duration
	// LogOutput receives console log lines. Defaults to os.Stderr.
	LogOutput io.Writer
	// Configure is applied to the loaded configuration before validation,
	// typically to apply command line overrides.
	Configure func(*config.Config)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Version:         "unknown",
		BuildTime:       "unknown",
		GitCommit:       "unknown",
		ShutdownTimeout: constants.ShutdownTimeout,
	}
}

// New creates a new application with the given options.
func New(opts Options) *App {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	return &App{
		container: NewContainer(),
		lifecycle: NewLifecycle(opts.ShutdownTimeout),
		version:   opts.Version,
		buildTime: opts.BuildTime,
		gitCommit: opts.GitCommit,
		logOutput: opts.LogOutput,
		configure: opts.Configure,
	}
}

// Initialize sets up all application components in the correct order.
// The initialization order is:
// 1. Configuration
// 2. Logger
// 3. Lifecycle engine
// 4. Metrics recorder
func (a *App) Initialize(ctx context.Context, configPath string) error {
	// 1. Load configuration
	cfg, err := a.loadConfig(configPath)
	if err != nil {
		return err
	}
	a.container.SetConfig(cfg)

	// 2. Initialize logger
	logger, err := a.initLogger(cfg)
	if err != nil {
		return errors.Wrap(errors.Configuration, "failed to initialize logger", err)
	}
	a.container.SetLogger(logger)

	logger.Debug("starting application",
		"version", a.version,
		"build_time", a.buildTime,
		"git_commit", a.gitCommit,
	)

	// 3. Initialize engine
	en := engine.New(
		engine.WithInvoker(invoke.New(
			invoke.WithTimeout(cfg.InvocationTimeout),
			invoke.WithLogger(logger),
		)),
		engine.WithTeardownPolicy(cfg.TeardownPolicy),
		engine.WithLogger(logger),
	)
	a.container.SetEngine(en)

	// 4. Initialize metrics
	a.container.SetMetrics(metrics.NewRecorder())

	if err := a.container.Validate(); err != nil {
		return err
	}

	logger.Debug("application initialized",
		"teardown_policy", cfg.TeardownPolicy,
		"invocation_timeout", cfg.InvocationTimeout,
		"fail_fast", cfg.FailFast,
		"parameters", strings.Join(cfg.ParameterKeys(), ","),
	)
	return nil
}

// LoadPlan loads, validates and builds the scenario at path.
func (a *App) LoadPlan(path string) (*scenario.Plan, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return s.Build(scenario.WithLogger(a.logger()))
}

// RunScenario executes every unit of the scenario at path. SIGINT and SIGTERM
// abort the units that have not started yet. When a metrics file is configured
// the run's metrics are written to it afterwards.
func (a *App) RunScenario(ctx context.Context, path string, listeners ...runner.Listener) (report runner.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = a.handlePanic(r)
		}
	}()

	if err := a.container.Validate(); err != nil {
		return runner.Report{}, err
	}
	if a.lifecycle.IsShuttingDown() {
		return runner.Report{}, errors.New(errors.InvalidState, "application is shutting down").
			WithOp("app.RunScenario")
	}
	cfg := a.container.GetConfig()
	logger := a.logger()

	plan, err := a.LoadPlan(path)
	if err != nil {
		return runner.Report{}, err
	}

	ctx, cancel := a.lifecycle.SignalContext(ctx)
	defer cancel()

	root := engine.NewRootContext(
		engine.WithRegistry(plan.Registry),
		engine.WithParameters(cfg.ExtensionParameters()),
		engine.WithContextLogger(logger),
	)

	opts := []runner.Option{
		runner.WithFailFast(cfg.FailFast),
		runner.WithLogger(logger),
		runner.WithListeners(runner.NewLoggingListener(logger.Info)),
	}
	recorder := a.container.GetMetrics()
	if recorder != nil {
		opts = append(opts, runner.WithListeners(recorder))
	}
	opts = append(opts, runner.WithListeners(listeners...))
	r := runner.New(a.container.GetEngine(), opts...)

	logger.Info("running scenario", "scenario", plan.Name, "units", len(plan.Units))
	report = r.Run(ctx, root, plan.Units)

	if sig := a.lifecycle.Signal(); sig != nil {
		logger.Warn("run interrupted", "signal", sig.String())
	}

	if cfg.MetricsFile != "" && recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return report, err
		}
		logger.Debug("metrics written", "path", cfg.MetricsFile)
	}

	return report, nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	return a.lifecycle.Shutdown()
}

// Container returns the dependency container.
func (a *App) Container() *Container {
	return a.container
}

func (a *App) logger() logging.Logger {
	if l := a.container.GetLogger(); l != nil {
		return l
	}
	return logging.NewNop()
}

func (a *App) loadConfig(path string) (*config.Config, error) {
	return config.NewLoader(path).LoadAndValidate(a.configure)
}

// initLogger builds the console logger and, when a log file is configured,
// tees into it. The file is closed on shutdown.
func (a *App) initLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := logging.DefaultOptions()
	opts.Level = level
	opts.Output = a.logOutput
	opts.NoColor = cfg.NoColor
	console := logging.New(opts)

	if cfg.LogFile == "" {
		return console, nil
	}

	file, closer, err := logging.NewFileLogger(cfg.LogFile, logging.LevelDebug)
	if err != nil {
		return nil, err
	}
	a.lifecycle.OnShutdown(func(context.Context) error {
		return closer.Close()
	})
	return logging.NewMultiLogger(console, file), nil
}

// handlePanic handles a recovered panic and returns an error.
// It logs the panic with a stack trace if a logger is available.
func (a *App) handlePanic(r interface{}) error {
	stack := debug.Stack()
	logger := a.container.GetLogger()

	if logger != nil {
		logger.Error("panic recovered",
			"panic", fmt.Sprintf("%v", r),
			"stack", string(stack),
		)
	} else {
		fmt.Fprintf(os.Stderr, "PANIC: %v\n%s\n", r, stack)
	}

	return errors.Newf(errors.Unknown, "panic: %v", r)
}
