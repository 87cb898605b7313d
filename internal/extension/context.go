package extension

import (
	"context"
	"sync"
)

// Parameters gives read access to configuration parameters.
type Parameters interface {
	Get(key string) (string, bool)
}

// ReportFunc receives entries published by extensions through Context.Publish.
type ReportFunc func(entry map[string]string)

// Context is handed to every callback of a unit. It exposes the unit's identity,
// the test instance, configuration parameters, and a store shared by the unit's
// callbacks for the duration of one execution.
type Context struct {
	// UnitID is the unique identifier of the unit.
	UnitID string
	// DisplayName is the human readable unit name.
	DisplayName string
	// Tags holds the unit's tags including inherited ones.
	Tags []string
	// Instance is the test instance the body runs against.
	Instance interface{}
	// Parent is the context of the enclosing container, if any.
	Parent *Context
	// Parameters exposes configuration parameters; never nil after NewContext.
	Parameters Parameters

	ctx     context.Context
	report  ReportFunc
	store   map[string]interface{}
	storeMu sync.RWMutex
}

// ContextOption is a functional option for Context.
type ContextOption func(*Context)

// NewContext creates a context with the given options.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		ctx:        context.Background(),
		store:      make(map[string]interface{}),
		Parameters: emptyParameters{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithUnit sets the unit identity.
func WithUnit(id, displayName string, tags []string) ContextOption {
	return func(c *Context) {
		c.UnitID = id
		c.DisplayName = displayName
		c.Tags = append([]string(nil), tags...)
	}
}

// WithInstance sets the test instance.
func WithInstance(instance interface{}) ContextOption {
	return func(c *Context) {
		c.Instance = instance
	}
}

// WithParent sets the enclosing context.
func WithParent(parent *Context) ContextOption {
	return func(c *Context) {
		c.Parent = parent
	}
}

// WithParameters sets the configuration parameters.
func WithParameters(p Parameters) ContextOption {
	return func(c *Context) {
		if p != nil {
			c.Parameters = p
		}
	}
}

// WithReporter sets the function receiving published entries.
func WithReporter(fn ReportFunc) ContextOption {
	return func(c *Context) {
		c.report = fn
	}
}

// WithGoContext sets the context.Context used for cancellation and deadlines.
func WithGoContext(ctx context.Context) ContextOption {
	return func(c *Context) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Publish forwards a reporting entry to the configured reporter.
func (c *Context) Publish(entry map[string]string) {
	if c.report != nil && len(entry) > 0 {
		c.report(entry)
	}
}

// Parameter looks up a configuration parameter.
func (c *Context) Parameter(key string) (string, bool) {
	return c.Parameters.Get(key)
}

// Put stores a value under key.
func (c *Context) Put(key string, value interface{}) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	c.store[key] = value
}

// Get retrieves the value stored under key. Lookups fall back to the parent
// context when the key is absent.
func (c *Context) Get(key string) (interface{}, bool) {
	c.storeMu.RLock()
	v, ok := c.store[key]
	c.storeMu.RUnlock()
	if ok {
		return v, true
	}
	if c.Parent != nil {
		return c.Parent.Get(key)
	}
	return nil, false
}

// GetString returns the string stored under key, or "" if absent or not a string.
func (c *Context) GetString(key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Remove deletes key from this context's store and returns the removed value.
func (c *Context) Remove(key string) (interface{}, bool) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	v, ok := c.store[key]
	delete(c.store, key)
	return v, ok
}

type emptyParameters struct{}

func (emptyParameters) Get(string) (string, bool) { return "", false }

// MapParameters adapts a map to Parameters.
type MapParameters map[string]string

// Get implements Parameters.
func (m MapParameters) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
