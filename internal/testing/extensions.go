package testing

import (
	"fmt"
	"sync"

	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/failure"
)

// ============================================================================
// Journal - ordered record of extension calls
// ============================================================================

// Journal records calls from recording extensions as "name.event" entries.
// It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Record appends name.event.
func (j *Journal) Record(name, event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, name+"."+event)
}

// Entries returns every entry in call order.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Count returns how many times entry was recorded.
func (j *Journal) Count(entry string) int {
	n := 0
	for _, e := range j.Entries() {
		if e == entry {
			n++
		}
	}
	return n
}

// Filter returns the entries whose event is event, in call order.
func (j *Journal) Filter(event string) []string {
	var out []string
	suffix := "." + event
	for _, e := range j.Entries() {
		if len(e) > len(suffix) && e[len(e)-len(suffix):] == suffix {
			out = append(out, e)
		}
	}
	return out
}

// Reset removes every entry.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// ============================================================================
// RecordingCallbacks - implements the six lifecycle callbacks
// ============================================================================

// RecordingCallbacks implements every setup and teardown capability. Each call
// is journaled under the phase name; configured phases fail or panic.
type RecordingCallbacks struct {
	name    string
	journal *Journal
	fail    map[failure.Phase]error
	panics  map[failure.Phase]interface{}
}

// NewRecordingCallbacks creates callbacks journaling to j.
func NewRecordingCallbacks(j *Journal, name string) *RecordingCallbacks {
	return &RecordingCallbacks{
		name:    name,
		journal: j,
		fail:    make(map[failure.Phase]error),
		panics:  make(map[failure.Phase]interface{}),
	}
}

// FailOn makes the callback for phase return err.
func (r *RecordingCallbacks) FailOn(phase failure.Phase, err error) *RecordingCallbacks {
	r.fail[phase] = err
	return r
}

// PanicOn makes the callback for phase panic with value.
func (r *RecordingCallbacks) PanicOn(phase failure.Phase, value interface{}) *RecordingCallbacks {
	r.panics[phase] = value
	return r
}

// Name implements extension.Extension.
func (r *RecordingCallbacks) Name() string { return r.name }

func (r *RecordingCallbacks) call(phase failure.Phase) error {
	r.journal.Record(r.name, phase.String())
	if v, ok := r.panics[phase]; ok {
		panic(v)
	}
	return r.fail[phase]
}

func (r *RecordingCallbacks) BeforeEach(*extension.Context) error {
	return r.call(failure.PhaseBeforeEach)
}

func (r *RecordingCallbacks) InvokeBeforeEachMethod(*extension.Context) error {
	return r.call(failure.PhaseBeforeEachMethod)
}

func (r *RecordingCallbacks) BeforeTestExecution(*extension.Context) error {
	return r.call(failure.PhaseBeforeTestExecution)
}

func (r *RecordingCallbacks) AfterTestExecution(*extension.Context) error {
	return r.call(failure.PhaseAfterTestExecution)
}

func (r *RecordingCallbacks) InvokeAfterEachMethod(*extension.Context) error {
	return r.call(failure.PhaseAfterEachMethod)
}

func (r *RecordingCallbacks) AfterEach(*extension.Context) error {
	return r.call(failure.PhaseAfterEach)
}

// ============================================================================
// RecordingHandler - exception handler with a scripted reaction
// ============================================================================

// HandlerFunc decides what a RecordingHandler does with an error.
type HandlerFunc func(err error) error

// RecordingHandler implements extension.ExceptionHandler.
type RecordingHandler struct {
	name    string
	journal *Journal
	react   HandlerFunc

	mu   sync.Mutex
	seen []error
}

// NewRecordingHandler creates a handler journaling to j and reacting with fn.
func NewRecordingHandler(j *Journal, name string, fn HandlerFunc) *RecordingHandler {
	return &RecordingHandler{name: name, journal: j, react: fn}
}

// AbsorbingHandler absorbs every error.
func AbsorbingHandler(j *Journal, name string) *RecordingHandler {
	return NewRecordingHandler(j, name, func(error) error { return nil })
}

// RethrowingHandler passes every error on unchanged.
func RethrowingHandler(j *Journal, name string) *RecordingHandler {
	return NewRecordingHandler(j, name, func(err error) error { return err })
}

// ReplacingHandler replaces every error with replacement.
func ReplacingHandler(j *Journal, name string, replacement error) *RecordingHandler {
	return NewRecordingHandler(j, name, func(error) error { return replacement })
}

// Name implements extension.Extension.
func (h *RecordingHandler) Name() string { return h.name }

// HandleTestExecutionException implements extension.ExceptionHandler.
func (h *RecordingHandler) HandleTestExecutionException(_ *extension.Context, err error) error {
	h.journal.Record(h.name, "handle")
	h.mu.Lock()
	h.seen = append(h.seen, err)
	h.mu.Unlock()
	return h.react(err)
}

// Seen returns the errors the handler received.
func (h *RecordingHandler) Seen() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.seen...)
}

// ============================================================================
// RecordingCondition - execution condition with a fixed result
// ============================================================================

// RecordingCondition implements extension.ExecutionCondition.
type RecordingCondition struct {
	name    string
	journal *Journal
	result  extension.ConditionResult
	err     error
}

// NewRecordingCondition creates a condition returning result.
func NewRecordingCondition(j *Journal, name string, result extension.ConditionResult) *RecordingCondition {
	return &RecordingCondition{name: name, journal: j, result: result}
}

// WithError makes the condition fail with err.
func (c *RecordingCondition) WithError(err error) *RecordingCondition {
	c.err = err
	return c
}

// Name implements extension.Extension.
func (c *RecordingCondition) Name() string { return c.name }

// EvaluateExecutionCondition implements extension.ExecutionCondition.
func (c *RecordingCondition) EvaluateExecutionCondition(*extension.Context) (extension.ConditionResult, error) {
	c.journal.Record(c.name, "evaluate")
	return c.result, c.err
}

// ============================================================================
// StaticResolver - parameter resolver keyed by parameter type
// ============================================================================

// StaticResolver resolves parameters whose Type has a configured value.
type StaticResolver struct {
	name   string
	values map[string]interface{}
}

// NewStaticResolver creates a resolver for the given type-to-value map.
func NewStaticResolver(name string, values map[string]interface{}) *StaticResolver {
	return &StaticResolver{name: name, values: values}
}

// Name implements extension.Extension.
func (r *StaticResolver) Name() string { return r.name }

// SupportsParameter implements extension.ParameterResolver.
func (r *StaticResolver) SupportsParameter(p extension.Parameter, _ *extension.Context) bool {
	_, ok := r.values[p.Type]
	return ok
}

// ResolveParameter implements extension.ParameterResolver.
func (r *StaticResolver) ResolveParameter(p extension.Parameter, _ *extension.Context) (interface{}, error) {
	v, ok := r.values[p.Type]
	if !ok {
		return nil, fmt.Errorf("no value for %s", p)
	}
	return v, nil
}

var (
	_ extension.BeforeEachCallback          = (*RecordingCallbacks)(nil)
	_ extension.BeforeEachMethodAdapter     = (*RecordingCallbacks)(nil)
	_ extension.BeforeTestExecutionCallback = (*RecordingCallbacks)(nil)
	_ extension.AfterTestExecutionCallback  = (*RecordingCallbacks)(nil)
	_ extension.AfterEachMethodAdapter      = (*RecordingCallbacks)(nil)
	_ extension.AfterEachCallback           = (*RecordingCallbacks)(nil)
	_ extension.ExceptionHandler            = (*RecordingHandler)(nil)
	_ extension.ExecutionCondition          = (*RecordingCondition)(nil)
	_ extension.ParameterResolver           = (*StaticResolver)(nil)
)
