// Package invoke calls unit bodies: it resolves their parameters through the
// registered resolvers, applies an optional time limit, and converts panics into
// errors.
package invoke

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
	"github.com/tungetti/gauntlet/internal/logging"
)

// Func is the signature of a unit body. args holds one resolved value per
// declared parameter.
type Func func(ctx context.Context, instance interface{}, args []interface{}) error

// Executable is a named callable with declared parameters.
type Executable struct {
	Name       string
	Parameters []extension.Parameter
	Fn         Func
}

// Signature renders the executable as name(param, ...).
func (e Executable) Signature() string {
	parts := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// Invoker runs executables.
type Invoker struct {
	timeout time.Duration
	logger  logging.Logger
}

// Option is a functional option for Invoker.
type Option func(*Invoker)

// WithTimeout limits every invocation to d. Zero or negative disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		i.timeout = d
	}
}

// WithLogger sets the invoker's logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Invoker.
func New(opts ...Option) *Invoker {
	i := &Invoker{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Timeout returns the configured time limit.
func (i *Invoker) Timeout() time.Duration {
	return i.timeout
}

// Invoke resolves the executable's arguments and calls it against instance.
// Resolution failures, body errors, panics and timeouts are all returned as errors.
func (i *Invoker) Invoke(ctx context.Context, exe Executable, instance interface{}, ec *extension.Context, reg *extension.Registry) error {
	if exe.Fn == nil {
		return errors.Newf(errors.Validation, "executable %q has no body", exe.Name).WithOp("invoke.Invoke")
	}

	args, err := ResolveArguments(exe, ec, reg)
	if err != nil {
		return err
	}

	if i.timeout <= 0 {
		return failure.Capture(func() error {
			return exe.Fn(ctx, instance, args)
		})
	}
	return i.invokeWithTimeout(ctx, exe, instance, args)
}

func (i *Invoker) invokeWithTimeout(ctx context.Context, exe Executable, instance interface{}, args []interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- failure.Capture(func() error {
			return exe.Fn(ctx, instance, args)
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The body keeps running until it observes ctx; its result is discarded.
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			i.logger.Warn("invocation timed out", "executable", exe.Name, "timeout", i.timeout)
			return errors.Wrapf(errors.Timeout, ctx.Err(), "%s exceeded %s", exe.Name, i.timeout).
				WithOp("invoke.Invoke")
		}
		return errors.Wrapf(errors.Cancelled, ctx.Err(), "%s cancelled", exe.Name).WithOp("invoke.Invoke")
	}
}

// ResolveArguments resolves one value per declared parameter. Exactly one
// registered resolver must support each parameter.
func ResolveArguments(exe Executable, ec *extension.Context, reg *extension.Registry) ([]interface{}, error) {
	if len(exe.Parameters) == 0 {
		return nil, nil
	}

	resolvers := extension.List[extension.ParameterResolver](reg)
	args := make([]interface{}, len(exe.Parameters))

	for idx, p := range exe.Parameters {
		var supporting []extension.ParameterResolver
		for _, r := range resolvers {
			var ok bool
			if err := failure.Capture(func() error {
				ok = r.SupportsParameter(p, ec)
				return nil
			}); err != nil {
				return nil, errors.Wrapf(errors.ParameterResolution, err,
					"resolver %q failed on parameter %s of %s", r.Name(), p, exe.Name).WithOp("invoke.ResolveArguments")
			}
			if ok {
				supporting = append(supporting, r)
			}
		}

		switch len(supporting) {
		case 0:
			return nil, errors.Newf(errors.ParameterResolution,
				"no resolver registered for parameter [%s] at index %d of %s", p, p.Index, exe.Name).
				WithOp("invoke.ResolveArguments")
		case 1:
		default:
			names := make([]string, len(supporting))
			for j, r := range supporting {
				names[j] = r.Name()
			}
			return nil, errors.Newf(errors.ParameterResolution,
				"competing resolvers for parameter [%s] of %s: %s", p, exe.Name, strings.Join(names, ", ")).
				WithOp("invoke.ResolveArguments")
		}

		r := supporting[0]
		var value interface{}
		err := failure.Capture(func() error {
			var err error
			value, err = r.ResolveParameter(p, ec)
			return err
		})
		if err != nil {
			return nil, errors.Wrapf(errors.ParameterResolution, err,
				"resolver %q failed to resolve parameter [%s] of %s", r.Name(), p, exe.Name).
				WithOp("invoke.ResolveArguments")
		}
		args[idx] = value
	}

	return args, nil
}
