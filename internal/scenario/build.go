package scenario

import (
	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/invoke"
	"github.com/tungetti/gauntlet/internal/logging"
)

// Plan is a built scenario, ready to hand to a runner.
type Plan struct {
	Name      string
	Container *engine.Container
	// Registry holds the scenario-level extensions; use it as the root registry.
	Registry *extension.Registry
	Units    []*engine.Unit
	Trace    *Trace
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger logging.Logger
}

// WithLogger sets the logger scripted extensions write to.
func WithLogger(l logging.Logger) BuildOption {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Build turns the scenario into engine units and a root registry.
func (s *Scenario) Build(opts ...BuildOption) (*Plan, error) {
	const op = "scenario.Build"
	o := buildOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}

	plan := &Plan{
		Name:      s.Name,
		Container: engine.NewContainer(s.Name, s.Name, nil, s.Tags...),
		Registry:  extension.NewRegistry(nil),
		Trace:     &Trace{},
	}

	exts, err := buildExtensions(s.Extensions, plan.Trace, o.logger)
	if err != nil {
		return nil, errors.Wrapf(errors.Scenario, err, "scenario %s", s.Name).WithOp(op)
	}
	if err := plan.Registry.RegisterAll(exts...); err != nil {
		return nil, errors.Wrapf(errors.Registration, err, "scenario %s", s.Name).WithOp(op)
	}

	for _, u := range s.Units {
		unit, err := buildUnit(u, plan, o.logger)
		if err != nil {
			return nil, errors.Wrapf(errors.Scenario, err, "unit %s", u.ID).WithOp(op)
		}
		plan.Units = append(plan.Units, unit)
	}
	return plan, nil
}

func buildUnit(u Unit, plan *Plan, logger logging.Logger) (*engine.Unit, error) {
	switch u.Body.Kind {
	case ActionPublish:
		return nil, errors.New(errors.Scenario, "publish is not allowed in a unit body")
	case ActionExpectArgs:
		if len(u.Body.Args) != len(u.Params) {
			return nil, errors.Newf(errors.Scenario,
				"body expects %d arguments but %d parameters are declared", len(u.Body.Args), len(u.Params))
		}
	}

	params := make([]extension.Parameter, len(u.Params))
	for i, p := range u.Params {
		params[i] = extension.Parameter{Index: i, Name: p.Name, Type: p.Type}
	}

	exts, err := buildExtensions(u.Extensions, plan.Trace, logger)
	if err != nil {
		return nil, err
	}

	opts := []engine.UnitOption{
		engine.WithParentDescriptor(plan.Container),
		engine.WithTags(u.Tags...),
		engine.WithExtensions(exts...),
	}
	if u.Name != "" {
		opts = append(opts, engine.WithDisplayName(u.Name))
	}

	body := invoke.Executable{
		Name:       u.ID,
		Parameters: params,
		Fn:         u.Body.body(u.ID, plan.Trace),
	}
	return engine.NewUnit(u.ID, body, opts...), nil
}

func buildExtensions(defs []Extension, trace *Trace, logger logging.Logger) ([]extension.Extension, error) {
	exts := make([]extension.Extension, 0, len(defs))
	for _, def := range defs {
		for _, a := range def.actions() {
			if a != nil && a.Kind == ActionExpectArgs {
				return nil, errors.Newf(errors.Scenario, "extension %s: expect_args is only allowed in a unit body", def.Name)
			}
		}
		exts = append(exts, &scripted{def: def, trace: trace, logger: logger})
	}
	return exts, nil
}

func (e Extension) actions() []*Action {
	return []*Action{
		e.BeforeEach, e.BeforeEachMethod, e.BeforeTestExecution,
		e.AfterTestExecution, e.AfterEachMethod, e.AfterEach,
	}
}
