package engine

import (
	"context"

	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/logging"
)

// ReportFunc receives reporting entries published by a unit's extensions.
type ReportFunc func(unitID string, entry map[string]string)

// ExecutionContext carries what one unit execution needs: the extension
// registry, the extension context handed to callbacks, the instance provider,
// configuration parameters and a logger.
//
// An ExecutionContext is never modified after construction. Extend returns a
// copy with overrides, so a parent can be shared by every child it derives.
type ExecutionContext struct {
	ctx        context.Context
	registry   *extension.Registry
	extContext *extension.Context
	instances  InstanceProvider
	params     extension.Parameters
	logger     logging.Logger
	report     ReportFunc
}

// ContextOption is a functional option for ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithGoContext sets the context.Context used for cancellation and deadlines.
func WithGoContext(ctx context.Context) ContextOption {
	return func(c *ExecutionContext) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithRegistry sets the extension registry.
func WithRegistry(r *extension.Registry) ContextOption {
	return func(c *ExecutionContext) {
		c.registry = r
	}
}

// WithExtensionContext sets the context handed to extension callbacks.
func WithExtensionContext(ec *extension.Context) ContextOption {
	return func(c *ExecutionContext) {
		c.extContext = ec
	}
}

// WithInstanceProvider sets the instance provider.
func WithInstanceProvider(p InstanceProvider) ContextOption {
	return func(c *ExecutionContext) {
		c.instances = p
	}
}

// WithParameters sets the configuration parameters.
func WithParameters(p extension.Parameters) ContextOption {
	return func(c *ExecutionContext) {
		if p != nil {
			c.params = p
		}
	}
}

// WithContextLogger sets the logger.
func WithContextLogger(l logging.Logger) ContextOption {
	return func(c *ExecutionContext) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReporter sets the function receiving published reporting entries.
func WithReporter(fn ReportFunc) ContextOption {
	return func(c *ExecutionContext) {
		c.report = fn
	}
}

// NewRootContext creates the context every unit execution derives from.
func NewRootContext(opts ...ContextOption) *ExecutionContext {
	c := &ExecutionContext{
		ctx:      context.Background(),
		registry: extension.NewRegistry(nil),
		params:   extension.MapParameters{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extend returns a copy of c with opts applied. c is left unchanged.
func (c *ExecutionContext) Extend(opts ...ContextOption) *ExecutionContext {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Context returns the underlying context.Context.
func (c *ExecutionContext) Context() context.Context { return c.ctx }

// Registry returns the extension registry.
func (c *ExecutionContext) Registry() *extension.Registry { return c.registry }

// ExtensionContext returns the context handed to extension callbacks.
func (c *ExecutionContext) ExtensionContext() *extension.Context { return c.extContext }

// InstanceProvider returns the instance provider, which may be nil.
func (c *ExecutionContext) InstanceProvider() InstanceProvider { return c.instances }

// Parameters returns the configuration parameters.
func (c *ExecutionContext) Parameters() extension.Parameters { return c.params }

// Logger returns the logger.
func (c *ExecutionContext) Logger() logging.Logger { return c.logger }

// Reporter returns the reporting hook, which may be nil.
func (c *ExecutionContext) Reporter() ReportFunc { return c.report }
