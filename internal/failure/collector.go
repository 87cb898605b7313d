package failure

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Failure is an error raised during one lifecycle phase.
type Failure struct {
	// Phase is the lifecycle phase that raised the error.
	Phase Phase
	// Source names the extension or executable that raised the error.
	Source string
	// Err is the raised error.
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Source != "" {
		return fmt.Sprintf("%s [%s]: %v", f.Phase, f.Source, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Phase, f.Err)
}

// Unwrap returns the raised error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// PanicError is a recovered panic converted into an error.
type PanicError struct {
	Value interface{}
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Capture runs fn and converts a panic into a *PanicError.
func Capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// AggregateError is reported when more than one failure was collected.
// The first failure is primary, the rest are suppressed.
type AggregateError struct {
	primary    *Failure
	suppressed []*Failure
}

// Primary returns the first collected failure.
func (e *AggregateError) Primary() *Failure {
	return e.primary
}

// Suppressed returns the failures collected after the primary, in order.
func (e *AggregateError) Suppressed() []*Failure {
	return append([]*Failure(nil), e.suppressed...)
}

// Failures returns every failure, primary first.
func (e *AggregateError) Failures() []*Failure {
	return append([]*Failure{e.primary}, e.suppressed...)
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString(e.primary.Error())
	fmt.Fprintf(&b, " (%d suppressed:", len(e.suppressed))
	for i, s := range e.suppressed {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(" ")
		b.WriteString(s.Error())
	}
	b.WriteString(")")
	return b.String()
}

// Unwrap exposes every collected failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.suppressed)+1)
	errs = append(errs, e.primary)
	for _, s := range e.suppressed {
		errs = append(errs, s)
	}
	return errs
}

// Collector accumulates failures for a single unit execution.
// It is not safe for concurrent use; one execution owns one collector.
type Collector struct {
	failures []*Failure
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Execute runs action and records its error or panic. It never re-raises.
func (c *Collector) Execute(phase Phase, source string, action func() error) {
	if err := Capture(action); err != nil {
		c.Add(phase, source, err)
	}
}

// Add records err directly. Nil errors are ignored.
func (c *Collector) Add(phase Phase, source string, err error) {
	if err == nil {
		return
	}
	c.failures = append(c.failures, &Failure{Phase: phase, Source: source, Err: err})
}

// IsEmpty reports whether no failure has been collected.
func (c *Collector) IsEmpty() bool {
	return len(c.failures) == 0
}

// IsNotEmpty reports whether at least one failure has been collected.
func (c *Collector) IsNotEmpty() bool {
	return !c.IsEmpty()
}

// Len returns the number of collected failures.
func (c *Collector) Len() int {
	return len(c.failures)
}

// Failures returns a copy of the collected failures in collection order.
func (c *Collector) Failures() []*Failure {
	return append([]*Failure(nil), c.failures...)
}

// AssertEmpty folds the collected failures into the execution outcome:
// nil when empty, the single *Failure when there is one, and an
// *AggregateError when there are several.
func (c *Collector) AssertEmpty() error {
	switch len(c.failures) {
	case 0:
		return nil
	case 1:
		return c.failures[0]
	default:
		return &AggregateError{
			primary:    c.failures[0],
			suppressed: append([]*Failure(nil), c.failures[1:]...),
		}
	}
}
