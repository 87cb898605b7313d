// Package extension defines the callback capabilities an extension can implement,
// the registry that hands them to the lifecycle engine in order, and the context
// object every callback receives.
package extension

// Extension is implemented by everything that can be registered.
// Names identify extensions in logs and failures and must be unique in a registry chain.
type Extension interface {
	Name() string
}

// BeforeEachCallback runs before each unit, ahead of the unit's own setup methods.
type BeforeEachCallback interface {
	Extension
	BeforeEach(ec *Context) error
}

// BeforeEachMethodAdapter invokes a user-declared setup method for the unit.
type BeforeEachMethodAdapter interface {
	Extension
	InvokeBeforeEachMethod(ec *Context) error
}

// BeforeTestExecutionCallback runs immediately before the unit body.
type BeforeTestExecutionCallback interface {
	Extension
	BeforeTestExecution(ec *Context) error
}

// AfterTestExecutionCallback runs immediately after the unit body.
type AfterTestExecutionCallback interface {
	Extension
	AfterTestExecution(ec *Context) error
}

// AfterEachMethodAdapter invokes a user-declared teardown method for the unit.
type AfterEachMethodAdapter interface {
	Extension
	InvokeAfterEachMethod(ec *Context) error
}

// AfterEachCallback runs after each unit, after the unit's own teardown methods.
type AfterEachCallback interface {
	Extension
	AfterEach(ec *Context) error
}

// ExceptionHandler gets a chance to handle an error raised by the unit body.
// Returning nil absorbs the error. Returning an error (the same one or another)
// passes it on to the next registered handler.
type ExceptionHandler interface {
	Extension
	HandleTestExecutionException(ec *Context, err error) error
}

// ExecutionCondition decides whether the unit should run.
type ExecutionCondition interface {
	Extension
	EvaluateExecutionCondition(ec *Context) (ConditionResult, error)
}

// ParameterResolver supplies arguments for the unit body's parameters.
type ParameterResolver interface {
	Extension
	SupportsParameter(p Parameter, ec *Context) bool
	ResolveParameter(p Parameter, ec *Context) (interface{}, error)
}

// ConditionResult is the outcome of evaluating an ExecutionCondition.
type ConditionResult struct {
	Disabled bool
	Reason   string
}

// Enabled returns a result that lets the unit run.
func Enabled(reason string) ConditionResult {
	return ConditionResult{Reason: reason}
}

// Disabled returns a result that skips the unit.
func Disabled(reason string) ConditionResult {
	return ConditionResult{Disabled: true, Reason: reason}
}

// Parameter describes one declared parameter of a unit body.
type Parameter struct {
	// Index is the position of the parameter in the declaration.
	Index int
	// Name is the declared parameter name.
	Name string
	// Type is a free-form type label used by resolvers to match parameters.
	Type string
}

// String renders the parameter for display names.
func (p Parameter) String() string {
	if p.Type != "" {
		return p.Type
	}
	return p.Name
}
