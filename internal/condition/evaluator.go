// Package condition decides whether a unit runs by consulting the execution
// conditions registered for it.
package condition

import (
	"path"
	"strings"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/logging"
)

// EnabledReason is the reason reported when no condition disabled the unit.
const EnabledReason = "no disabled conditions encountered"

// Evaluator evaluates ExecutionCondition extensions in registration order.
// The first disabled result wins.
type Evaluator struct {
	logger logging.Logger
}

// Option is a functional option for Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to trace decisions.
func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateForTest returns the skip decision for the unit described by ec.
// Conditions whose name matches a pattern listed under the deactivation
// parameter are not consulted. An error or panic raised by a condition aborts
// evaluation with a Condition error.
func (e *Evaluator) EvaluateForTest(reg *extension.Registry, params extension.Parameters, ec *extension.Context) (extension.ConditionResult, error) {
	deactivated := Deactivated(params)

	for _, cond := range extension.List[extension.ExecutionCondition](reg) {
		if matchesAny(cond.Name(), deactivated) {
			e.logger.Debug("condition deactivated", "condition", cond.Name())
			continue
		}

		var result extension.ConditionResult
		err := failure.Capture(func() error {
			var err error
			result, err = cond.EvaluateExecutionCondition(ec)
			return err
		})
		if err != nil {
			return extension.ConditionResult{}, errors.Wrapf(errors.Condition, err,
				"evaluating condition %q", cond.Name()).WithOp("condition.EvaluateForTest")
		}
		if result.Disabled {
			e.logger.Debug("unit disabled", "condition", cond.Name(), "reason", result.Reason)
			return result, nil
		}
	}

	return extension.Enabled(EnabledReason), nil
}

// Deactivated returns the condition name patterns listed in params.
func Deactivated(params extension.Parameters) []string {
	if params == nil {
		return nil
	}
	raw, ok := params.Get(constants.DeactivateConditionsKey)
	if !ok {
		return nil
	}
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == "*" || p == name {
			return true
		}
		// malformed patterns never match
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
