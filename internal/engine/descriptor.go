package engine

import (
	"context"

	"github.com/tungetti/gauntlet/internal/extension"
	"github.com/tungetti/gauntlet/internal/invoke"
)

// Descriptor is a node of the unit hierarchy. The hierarchy itself is built
// elsewhere; the engine only walks it upwards to inherit tags.
type Descriptor interface {
	ID() string
	DisplayName() string
	Tags() []string
	Parent() Descriptor
}

// Container groups units for display and tag inheritance.
type Container struct {
	id     string
	name   string
	tags   []string
	parent Descriptor
}

// NewContainer creates a container node.
func NewContainer(id, name string, parent Descriptor, tags ...string) *Container {
	return &Container{id: id, name: name, tags: tags, parent: parent}
}

// ID returns the container's unique identifier.
func (c *Container) ID() string { return c.id }

// DisplayName returns the container's name.
func (c *Container) DisplayName() string { return c.name }

// Tags returns the container's tags merged with those of its ancestors.
func (c *Container) Tags() []string { return mergeTags(c.tags, c.parent) }

// Parent returns the enclosing descriptor or nil.
func (c *Container) Parent() Descriptor { return c.parent }

// Unit is a single executable test unit.
type Unit struct {
	id          string
	displayName string
	tags        []string
	parent      Descriptor
	body        invoke.Executable
	extensions  []extension.Extension
}

// UnitOption is a functional option for Unit.
type UnitOption func(*Unit)

// WithDisplayName overrides the default display name.
func WithDisplayName(name string) UnitOption {
	return func(u *Unit) {
		u.displayName = name
	}
}

// WithTags adds the unit's own tags.
func WithTags(tags ...string) UnitOption {
	return func(u *Unit) {
		u.tags = append(u.tags, tags...)
	}
}

// WithParentDescriptor sets the enclosing descriptor.
func WithParentDescriptor(parent Descriptor) UnitOption {
	return func(u *Unit) {
		u.parent = parent
	}
}

// WithExtensions declares extensions that apply to this unit only.
func WithExtensions(exts ...extension.Extension) UnitOption {
	return func(u *Unit) {
		u.extensions = append(u.extensions, exts...)
	}
}

// NewUnit creates a unit running body.
func NewUnit(id string, body invoke.Executable, opts ...UnitOption) *Unit {
	u := &Unit{id: id, body: body}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ID returns the unit's unique identifier.
func (u *Unit) ID() string { return u.id }

// DisplayName returns the configured display name, or the body signature.
func (u *Unit) DisplayName() string {
	if u.displayName != "" {
		return u.displayName
	}
	return u.body.Signature()
}

// Tags returns the unit's own tags followed by inherited ones, without duplicates.
func (u *Unit) Tags() []string { return mergeTags(u.tags, u.parent) }

// Parent returns the enclosing descriptor or nil.
func (u *Unit) Parent() Descriptor { return u.parent }

// Body returns the executable run in the test execution phase.
func (u *Unit) Body() invoke.Executable { return u.body }

// Extensions returns the extensions declared on the unit.
func (u *Unit) Extensions() []extension.Extension {
	return append([]extension.Extension(nil), u.extensions...)
}

func mergeTags(own []string, parent Descriptor) []string {
	seen := make(map[string]struct{}, len(own))
	var out []string
	add := func(tags []string) {
		for _, t := range tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	add(own)
	if parent != nil {
		add(parent.Tags())
	}
	return out
}

// InstanceProvider supplies the test instance a unit body runs against.
type InstanceProvider interface {
	TestInstance(ctx context.Context) (interface{}, error)
}

// InstanceProviderFunc adapts a function to InstanceProvider.
type InstanceProviderFunc func(ctx context.Context) (interface{}, error)

// TestInstance calls f.
func (f InstanceProviderFunc) TestInstance(ctx context.Context) (interface{}, error) {
	return f(ctx)
}
