// Package failure collects the failures raised while a test unit runs through its
// lifecycle phases and folds them into a single outcome.
package failure

import "fmt"

// Phase identifies the lifecycle phase that produced a failure.
type Phase int

const (
	// PhaseUnknown is used for failures not attributed to a phase.
	PhaseUnknown Phase = iota
	// PhaseBeforeEach covers before-each callbacks.
	PhaseBeforeEach
	// PhaseBeforeEachMethod covers before-each method adapters.
	PhaseBeforeEachMethod
	// PhaseBeforeTestExecution covers before-test-execution callbacks.
	PhaseBeforeTestExecution
	// PhaseTestExecution covers the unit body and its exception handlers.
	PhaseTestExecution
	// PhaseAfterTestExecution covers after-test-execution callbacks.
	PhaseAfterTestExecution
	// PhaseAfterEachMethod covers after-each method adapters.
	PhaseAfterEachMethod
	// PhaseAfterEach covers after-each callbacks.
	PhaseAfterEach
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseBeforeEach:
		return "before_each"
	case PhaseBeforeEachMethod:
		return "before_each_method"
	case PhaseBeforeTestExecution:
		return "before_test_execution"
	case PhaseTestExecution:
		return "test_execution"
	case PhaseAfterTestExecution:
		return "after_test_execution"
	case PhaseAfterEachMethod:
		return "after_each_method"
	case PhaseAfterEach:
		return "after_each"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// IsSetup reports whether the phase runs before the body.
func (p Phase) IsSetup() bool {
	return p >= PhaseBeforeEach && p <= PhaseBeforeTestExecution
}

// IsTeardown reports whether the phase runs after the body.
func (p Phase) IsTeardown() bool {
	return p >= PhaseAfterTestExecution && p <= PhaseAfterEach
}

// Phases returns every attributable phase in execution order.
func Phases() []Phase {
	return []Phase{
		PhaseBeforeEach,
		PhaseBeforeEachMethod,
		PhaseBeforeTestExecution,
		PhaseTestExecution,
		PhaseAfterTestExecution,
		PhaseAfterEachMethod,
		PhaseAfterEach,
	}
}
