package engine

import (
	"fmt"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/logging"
)

// State is the lifecycle state of an execution.
type State int

const (
	StateCreated State = iota
	StatePrepared
	StateSkipped
	StateRunning
	StateCompleted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePrepared:
		return "prepared"
	case StateSkipped:
		return "skipped"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Execution is one run of one unit. It is driven through Prepare,
// ShouldBeSkipped and Execute, in that order, by a single goroutine.
type Execution struct {
	engine    *Engine
	unit      *Unit
	state     State
	logger    logging.Logger
	collector *failure.Collector
	handling  HandlingResult
}

// Unit returns the unit being executed.
func (x *Execution) Unit() *Unit { return x.unit }

// State returns the current state.
func (x *Execution) State() State { return x.state }

// Failures returns the failures collected by Execute.
func (x *Execution) Failures() []*failure.Failure {
	if x.collector == nil {
		return nil
	}
	return x.collector.Failures()
}

// Handling returns how the body error, if any, was handled.
func (x *Execution) Handling() HandlingResult { return x.handling }

func (x *Execution) requireState(op string, allowed ...State) error {
	for _, s := range allowed {
		if x.state == s {
			return nil
		}
	}
	return errors.Wrapf(errors.InvalidState, errors.ErrInvalidState,
		"unit %s is %s", x.unit.ID(), x.state).WithOp(op)
}

// Prepare derives the unit's execution context from parent. It registers the
// unit's own extensions in a child registry, obtains the test instance and
// builds the extension context. No extension callback runs.
//
// Instantiation failures are returned with code Instantiation and leave the
// execution in the Created state.
func (x *Execution) Prepare(parent *ExecutionContext) (*ExecutionContext, error) {
	const op = "engine.Prepare"
	if err := x.requireState(op, StateCreated); err != nil {
		return nil, err
	}

	reg := extension.NewRegistry(parent.Registry())
	if err := reg.RegisterAll(x.unit.Extensions()...); err != nil {
		return nil, errors.Wrapf(errors.Registration, err, "unit %s", x.unit.ID()).WithOp(op)
	}

	var instance interface{}
	if provider := parent.InstanceProvider(); provider != nil {
		err := failure.Capture(func() error {
			var err error
			instance, err = provider.TestInstance(parent.Context())
			return err
		})
		if err != nil {
			x.logger.Error("instantiation failed", "error", err)
			return nil, errors.Wrapf(errors.Instantiation, err,
				"cannot create test instance for %s", x.unit.ID()).WithOp(op)
		}
	}

	opts := []extension.ContextOption{
		extension.WithUnit(x.unit.ID(), x.unit.DisplayName(), x.unit.Tags()),
		extension.WithInstance(instance),
		extension.WithParent(parent.ExtensionContext()),
		extension.WithParameters(parent.Parameters()),
		extension.WithGoContext(parent.Context()),
	}
	if report := parent.Reporter(); report != nil {
		unitID := x.unit.ID()
		opts = append(opts, extension.WithReporter(func(entry map[string]string) {
			report(unitID, entry)
		}))
	}

	ctx := parent.Extend(
		WithRegistry(reg),
		WithExtensionContext(extension.NewContext(opts...)),
		WithContextLogger(logging.ForUnit(parent.Logger(), x.unit.ID())),
	)

	x.state = StatePrepared
	x.logger.Debug("prepared", "extensions", reg.Len())
	return ctx, nil
}

// ShouldBeSkipped asks the skip evaluator whether the unit runs. It may be
// called repeatedly; each call reflects the latest decision.
func (x *Execution) ShouldBeSkipped(ctx *ExecutionContext) (SkipResult, error) {
	const op = "engine.ShouldBeSkipped"
	if err := x.requireState(op, StatePrepared, StateSkipped); err != nil {
		return SkipResult{}, err
	}

	result, err := x.engine.evaluator.EvaluateForTest(ctx.Registry(), ctx.Parameters(), ctx.ExtensionContext())
	if err != nil {
		return SkipResult{}, err
	}

	if result.Disabled {
		x.state = StateSkipped
		skip := Skip(result.Reason)
		x.logger.Debug("skipped", "reason", skip.Reason)
		return skip, nil
	}
	x.state = StatePrepared
	return DoNotSkip(), nil
}

// Execute runs the seven lifecycle phases and returns the collected outcome:
// nil, the single failure, or a *failure.AggregateError.
func (x *Execution) Execute(ctx *ExecutionContext) (*ExecutionContext, error) {
	const op = "engine.Execute"
	if err := x.requireState(op, StatePrepared); err != nil {
		return ctx, err
	}
	x.state = StateRunning
	defer func() { x.state = StateCompleted }()

	x.collector = failure.NewCollector()
	c := x.collector
	reg := ctx.Registry()
	ec := ctx.ExtensionContext()

	x.logger.Debug("phase", "phase", failure.PhaseBeforeEach)
	runSetup(c, failure.PhaseBeforeEach, extension.List[extension.BeforeEachCallback](reg),
		func(e extension.BeforeEachCallback) error { return e.BeforeEach(ec) })

	reachedBeforeEachMethods := c.IsEmpty()
	if reachedBeforeEachMethods {
		x.logger.Debug("phase", "phase", failure.PhaseBeforeEachMethod)
		runSetup(c, failure.PhaseBeforeEachMethod, extension.List[extension.BeforeEachMethodAdapter](reg),
			func(e extension.BeforeEachMethodAdapter) error { return e.InvokeBeforeEachMethod(ec) })
	}

	reachedBeforeTestExecution := c.IsEmpty()
	if reachedBeforeTestExecution {
		x.logger.Debug("phase", "phase", failure.PhaseBeforeTestExecution)
		runSetup(c, failure.PhaseBeforeTestExecution, extension.List[extension.BeforeTestExecutionCallback](reg),
			func(e extension.BeforeTestExecutionCallback) error { return e.BeforeTestExecution(ec) })
	}

	if c.IsEmpty() {
		x.logger.Debug("phase", "phase", failure.PhaseTestExecution)
		x.invokeBody(ctx)
	}

	nested := x.engine.policy == constants.TeardownNested

	if !nested || reachedBeforeTestExecution {
		x.logger.Debug("phase", "phase", failure.PhaseAfterTestExecution)
		runTeardown(c, failure.PhaseAfterTestExecution, extension.Reverse[extension.AfterTestExecutionCallback](reg),
			func(e extension.AfterTestExecutionCallback) error { return e.AfterTestExecution(ec) })
	}

	if !nested || reachedBeforeEachMethods {
		x.logger.Debug("phase", "phase", failure.PhaseAfterEachMethod)
		runTeardown(c, failure.PhaseAfterEachMethod, extension.Reverse[extension.AfterEachMethodAdapter](reg),
			func(e extension.AfterEachMethodAdapter) error { return e.InvokeAfterEachMethod(ec) })
	}

	x.logger.Debug("phase", "phase", failure.PhaseAfterEach)
	runTeardown(c, failure.PhaseAfterEach, extension.Reverse[extension.AfterEachCallback](reg),
		func(e extension.AfterEachCallback) error { return e.AfterEach(ec) })

	for _, f := range c.Failures() {
		x.logger.Warn("failure collected", "phase", f.Phase, "source", f.Source, "error", f.Err)
	}
	return ctx, c.AssertEmpty()
}

func (x *Execution) invokeBody(ctx *ExecutionContext) {
	ec := ctx.ExtensionContext()
	body := x.unit.Body()

	err := failure.Capture(func() error {
		return x.engine.invoker.Invoke(ctx.Context(), body, ec.Instance, ec, ctx.Registry())
	})
	if err == nil {
		x.handling = HandlingResult{Outcome: OutcomeSucceeded}
		return
	}

	x.handling = HandleException(extension.List[extension.ExceptionHandler](ctx.Registry()), ec, err)
	switch x.handling.Outcome {
	case OutcomeAbsorbed:
		x.logger.Debug("body failure absorbed", "handler", x.handling.HandledBy, "error", err)
	case OutcomePropagated:
		x.collector.Add(failure.PhaseTestExecution, body.Name, x.handling.Err)
	}
}

// runSetup calls fn for each extension until the first failure.
func runSetup[T extension.Extension](c *failure.Collector, phase failure.Phase, exts []T, fn func(T) error) {
	for _, e := range exts {
		before := c.Len()
		c.Execute(phase, e.Name(), func() error { return fn(e) })
		if c.Len() > before {
			return
		}
	}
}

// runTeardown calls fn for every extension, collecting each failure.
func runTeardown[T extension.Extension](c *failure.Collector, phase failure.Phase, exts []T, fn func(T) error) {
	for _, e := range exts {
		c.Execute(phase, e.Name(), func() error { return fn(e) })
	}
}
