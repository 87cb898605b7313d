// Package engine runs the lifecycle of a single test unit: it prepares the
// unit's execution context, asks whether the unit is skipped, and executes
// setup callbacks, the body and teardown callbacks, collecting every failure
// into one outcome.
package engine

import (
	"context"

	"github.com/tungetti/gauntlet/internal/condition"
	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/invoke"
	"github.com/tungetti/gauntlet/internal/logging"
)

// UnknownReason is reported for skipped units whose condition gave no reason.
const UnknownReason = "<unknown>"

// SkipEvaluator decides whether a unit is skipped.
type SkipEvaluator interface {
	EvaluateForTest(reg *extension.Registry, params extension.Parameters, ec *extension.Context) (extension.ConditionResult, error)
}

// Invoker runs a unit body with resolved arguments.
type Invoker interface {
	Invoke(ctx context.Context, exe invoke.Executable, instance interface{}, ec *extension.Context, reg *extension.Registry) error
}

// SkipResult is the skip decision for a unit.
type SkipResult struct {
	Skipped bool
	Reason  string
}

// Skip returns a decision that skips the unit. An empty reason becomes UnknownReason.
func Skip(reason string) SkipResult {
	if reason == "" {
		reason = UnknownReason
	}
	return SkipResult{Skipped: true, Reason: reason}
}

// DoNotSkip returns a decision that runs the unit.
func DoNotSkip() SkipResult {
	return SkipResult{}
}

// Engine creates executions. It holds read-only collaborators and can be
// shared by any number of executions.
type Engine struct {
	evaluator SkipEvaluator
	invoker   Invoker
	policy    constants.TeardownPolicy
	logger    logging.Logger
}

// Option is a functional option for Engine.
type Option func(*Engine)

// WithSkipEvaluator sets the skip evaluator.
func WithSkipEvaluator(e SkipEvaluator) Option {
	return func(en *Engine) {
		if e != nil {
			en.evaluator = e
		}
	}
}

// WithInvoker sets the invoker used for unit bodies.
func WithInvoker(i Invoker) Option {
	return func(en *Engine) {
		if i != nil {
			en.invoker = i
		}
	}
}

// WithTeardownPolicy sets how teardown phases react to setup failures.
// Unknown policies are ignored.
func WithTeardownPolicy(p constants.TeardownPolicy) Option {
	return func(en *Engine) {
		if p.IsValid() {
			en.policy = p
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l logging.Logger) Option {
	return func(en *Engine) {
		if l != nil {
			en.logger = l
		}
	}
}

// New creates an Engine. Without options it uses the condition evaluator,
// an invoker without time limit and the TeardownAlways policy.
func New(opts ...Option) *Engine {
	en := &Engine{
		policy: constants.TeardownAlways,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(en)
	}
	if en.evaluator == nil {
		en.evaluator = condition.New(condition.WithLogger(en.logger))
	}
	if en.invoker == nil {
		en.invoker = invoke.New(invoke.WithLogger(en.logger))
	}
	return en
}

// TeardownPolicy returns the configured teardown policy.
func (en *Engine) TeardownPolicy() constants.TeardownPolicy {
	return en.policy
}

// NewExecution creates an execution of u in the Created state.
func (en *Engine) NewExecution(u *Unit) *Execution {
	return &Execution{
		engine: en,
		unit:   u,
		state:  StateCreated,
		logger: logging.ForUnit(en.logger, u.ID()),
	}
}
