package scenario

import (
	"context"
	"fmt"
	"sync"

	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/invoke"
	"github.com/tungetti/gauntlet/internal/logging"
)

// Trace records what scripted extensions and bodies did, as "name.event"
// entries in call order. It is safe for concurrent use.
type Trace struct {
	mu      sync.Mutex
	entries []string
}

func (t *Trace) record(name, event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, name+"."+event)
}

// Entries returns the recorded entries.
func (t *Trace) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.entries...)
}

// perform runs a lifecycle action. A panic action panics with its message.
func (a Action) perform(ec *extension.Context) error {
	switch a.Kind {
	case ActionFail:
		return errors.New(errors.Unknown, a.Message)
	case ActionPanic:
		panic(a.Message)
	case ActionPublish:
		ec.Publish(a.Entry)
	}
	return nil
}

// body turns the action into a unit body.
func (a Action) body(name string, trace *Trace) invoke.Func {
	return func(_ context.Context, _ interface{}, args []interface{}) error {
		trace.record(name, "body")
		switch a.Kind {
		case ActionFail:
			return errors.New(errors.Unknown, a.Message)
		case ActionPanic:
			panic(a.Message)
		case ActionExpectArgs:
			if len(args) != len(a.Args) {
				return errors.Newf(errors.Validation, "expected %d arguments, got %d", len(a.Args), len(args))
			}
			for i, want := range a.Args {
				if got := fmt.Sprint(args[i]); got != want {
					return errors.Newf(errors.Validation, "argument %d: got %q, want %q", i, got, want)
				}
			}
		}
		return nil
	}
}

// scripted is the extension built from an Extension description. It
// implements every capability; phases without a script do nothing, an
// unscripted handler passes errors on, an unscripted condition enables and
// an unscripted resolver supports no parameter.
type scripted struct {
	def    Extension
	trace  *Trace
	logger logging.Logger
}

func (s *scripted) Name() string { return s.def.Name }

func (s *scripted) run(phase failure.Phase, a *Action, ec *extension.Context) error {
	if a == nil {
		return nil
	}
	s.trace.record(s.def.Name, phase.String())
	s.logger.Debug("scripted action", "extension", s.def.Name, "phase", phase, "action", a.Kind)
	return a.perform(ec)
}

func (s *scripted) BeforeEach(ec *extension.Context) error {
	return s.run(failure.PhaseBeforeEach, s.def.BeforeEach, ec)
}

func (s *scripted) InvokeBeforeEachMethod(ec *extension.Context) error {
	return s.run(failure.PhaseBeforeEachMethod, s.def.BeforeEachMethod, ec)
}

func (s *scripted) BeforeTestExecution(ec *extension.Context) error {
	return s.run(failure.PhaseBeforeTestExecution, s.def.BeforeTestExecution, ec)
}

func (s *scripted) AfterTestExecution(ec *extension.Context) error {
	return s.run(failure.PhaseAfterTestExecution, s.def.AfterTestExecution, ec)
}

func (s *scripted) InvokeAfterEachMethod(ec *extension.Context) error {
	return s.run(failure.PhaseAfterEachMethod, s.def.AfterEachMethod, ec)
}

func (s *scripted) AfterEach(ec *extension.Context) error {
	return s.run(failure.PhaseAfterEach, s.def.AfterEach, ec)
}

func (s *scripted) HandleTestExecutionException(_ *extension.Context, err error) error {
	h := s.def.Handler
	if h == nil {
		return err
	}
	s.trace.record(s.def.Name, "handle")
	switch h.Mode {
	case HandlerAbsorb:
		return nil
	case HandlerReplace:
		return errors.Wrap(errors.Unknown, h.Message, err)
	default:
		return err
	}
}

func (s *scripted) EvaluateExecutionCondition(*extension.Context) (extension.ConditionResult, error) {
	c := s.def.Condition
	if c == nil {
		return extension.Enabled(""), nil
	}
	s.trace.record(s.def.Name, "evaluate")
	if c.Disable != "" {
		return extension.Disabled(c.Disable), nil
	}
	return extension.Enabled(c.Enable), nil
}

func (s *scripted) SupportsParameter(p extension.Parameter, _ *extension.Context) bool {
	if s.def.Resolver == nil {
		return false
	}
	_, ok := s.def.Resolver.Values[p.Type]
	return ok
}

func (s *scripted) ResolveParameter(p extension.Parameter, _ *extension.Context) (interface{}, error) {
	s.trace.record(s.def.Name, "resolve")
	v, ok := s.def.Resolver.Values[p.Type]
	if !ok {
		return nil, errors.Newf(errors.ParameterResolution, "no value for type %s", p.Type)
	}
	return v, nil
}

var (
	_ extension.BeforeEachCallback          = (*scripted)(nil)
	_ extension.BeforeEachMethodAdapter     = (*scripted)(nil)
	_ extension.BeforeTestExecutionCallback = (*scripted)(nil)
	_ extension.AfterTestExecutionCallback  = (*scripted)(nil)
	_ extension.AfterEachMethodAdapter      = (*scripted)(nil)
	_ extension.AfterEachCallback           = (*scripted)(nil)
	_ extension.ExceptionHandler            = (*scripted)(nil)
	_ extension.ExecutionCondition          = (*scripted)(nil)
	_ extension.ParameterResolver           = (*scripted)(nil)
)
