package extension

import (
	"strings"

	"github.com/tungetti/gauntlet/internal/errors"
)

// Capability is a bit set of the callback interfaces an extension implements.
type Capability uint16

const (
	CapBeforeEach Capability = 1 << iota
	CapBeforeEachMethod
	CapBeforeTestExecution
	CapAfterTestExecution
	CapAfterEachMethod
	CapAfterEach
	CapExceptionHandler
	CapExecutionCondition
	CapParameterResolver
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapBeforeEach, "before_each"},
	{CapBeforeEachMethod, "before_each_method"},
	{CapBeforeTestExecution, "before_test_execution"},
	{CapAfterTestExecution, "after_test_execution"},
	{CapAfterEachMethod, "after_each_method"},
	{CapAfterEach, "after_each"},
	{CapExceptionHandler, "exception_handler"},
	{CapExecutionCondition, "execution_condition"},
	{CapParameterResolver, "parameter_resolver"},
}

// Has reports whether every bit of other is set.
func (c Capability) Has(other Capability) bool {
	return c&other == other && other != 0
}

// String lists the capability names joined by '|'.
func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, cn := range capabilityNames {
		if c&cn.cap != 0 {
			names = append(names, cn.name)
		}
	}
	return strings.Join(names, "|")
}

// CapabilitiesOf inspects ext once and returns the capabilities it implements.
func CapabilitiesOf(ext Extension) Capability {
	var c Capability
	if _, ok := ext.(BeforeEachCallback); ok {
		c |= CapBeforeEach
	}
	if _, ok := ext.(BeforeEachMethodAdapter); ok {
		c |= CapBeforeEachMethod
	}
	if _, ok := ext.(BeforeTestExecutionCallback); ok {
		c |= CapBeforeTestExecution
	}
	if _, ok := ext.(AfterTestExecutionCallback); ok {
		c |= CapAfterTestExecution
	}
	if _, ok := ext.(AfterEachMethodAdapter); ok {
		c |= CapAfterEachMethod
	}
	if _, ok := ext.(AfterEachCallback); ok {
		c |= CapAfterEach
	}
	if _, ok := ext.(ExceptionHandler); ok {
		c |= CapExceptionHandler
	}
	if _, ok := ext.(ExecutionCondition); ok {
		c |= CapExecutionCondition
	}
	if _, ok := ext.(ParameterResolver); ok {
		c |= CapParameterResolver
	}
	return c
}

type entry struct {
	ext  Extension
	caps Capability
}

// Registry holds registered extensions in registration order. A registry may have
// a parent; lookups see the parent's extensions first, then its own.
//
// A registry is populated while a unit is prepared and only read afterwards, so it
// carries no lock.
type Registry struct {
	parent  *Registry
	entries []entry
}

// NewRegistry creates a registry chained to parent, which may be nil.
func NewRegistry(parent *Registry) *Registry {
	return &Registry{parent: parent}
}

// Parent returns the parent registry or nil.
func (r *Registry) Parent() *Registry {
	return r.parent
}

// Register adds ext. Extensions whose name is already registered in the chain are
// ignored so that an extension declared at several levels runs once. A typed nil
// whose Name panics is rejected.
func (r *Registry) Register(ext Extension) error {
	if ext == nil {
		return errors.New(errors.Registration, "extension is nil").WithOp("extension.Register")
	}
	name, err := nameOf(ext)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.Registration, "extension name is empty").WithOp("extension.Register")
	}
	if r.IsRegistered(name) {
		return nil
	}
	r.entries = append(r.entries, entry{ext: ext, caps: CapabilitiesOf(ext)})
	return nil
}

func nameOf(ext Extension) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.Registration, "extension %T is unusable: Name panicked: %v", ext, r).
				WithOp("extension.Register")
		}
	}()
	return ext.Name(), nil
}

// RegisterAll registers every extension, stopping at the first error.
func (r *Registry) RegisterAll(exts ...Extension) error {
	for _, ext := range exts {
		if err := r.Register(ext); err != nil {
			return err
		}
	}
	return nil
}

// IsRegistered reports whether an extension with name exists in the chain.
func (r *Registry) IsRegistered(name string) bool {
	for reg := r; reg != nil; reg = reg.parent {
		for _, e := range reg.entries {
			if e.ext.Name() == name {
				return true
			}
		}
	}
	return false
}

// Capabilities returns the capabilities recorded for the named extension.
func (r *Registry) Capabilities(name string) Capability {
	for _, e := range r.all() {
		if e.ext.Name() == name {
			return e.caps
		}
	}
	return 0
}

// Extensions returns every extension in the chain, ancestors first.
func (r *Registry) Extensions() []Extension {
	all := r.all()
	out := make([]Extension, len(all))
	for i, e := range all {
		out[i] = e.ext
	}
	return out
}

// Len returns the number of extensions in the chain.
func (r *Registry) Len() int {
	return len(r.all())
}

func (r *Registry) all() []entry {
	if r == nil {
		return nil
	}
	var out []entry
	if r.parent != nil {
		out = r.parent.all()
	}
	return append(out, r.entries...)
}

// List returns the extensions implementing T in registration order.
// The slice is freshly allocated; callers may consume it.
func List[T Extension](r *Registry) []T {
	var out []T
	for _, e := range r.all() {
		if t, ok := e.ext.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Reverse returns the extensions implementing T in reverse registration order.
func Reverse[T Extension](r *Registry) []T {
	out := List[T](r)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
