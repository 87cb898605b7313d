// Package scenario loads YAML scenario files describing extensions and units,
// and builds them into engine units backed by scripted extensions.
package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scenario is the root of a scenario file.
type Scenario struct {
	Name       string      `yaml:"name" validate:"required"`
	Tags       []string    `yaml:"tags,omitempty" validate:"dive,required"`
	Extensions []Extension `yaml:"extensions,omitempty" validate:"unique=Name,dive"`
	Units      []Unit      `yaml:"units" validate:"required,min=1,unique=ID,dive"`
}

// Unit describes one executable unit.
type Unit struct {
	ID         string      `yaml:"id" validate:"required,unit_id"`
	Name       string      `yaml:"name,omitempty"`
	Tags       []string    `yaml:"tags,omitempty" validate:"dive,required"`
	Params     []Param     `yaml:"params,omitempty" validate:"dive"`
	Body       Action      `yaml:"body"`
	Extensions []Extension `yaml:"extensions,omitempty" validate:"unique=Name,dive"`
}

// Param declares a body parameter. Type is matched by resolvers.
type Param struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
}

// Extension describes a scripted extension. Every field is optional; the
// extension only reacts in the phases it scripts.
type Extension struct {
	Name string `yaml:"name" validate:"required"`

	BeforeEach          *Action `yaml:"before_each,omitempty"`
	BeforeEachMethod    *Action `yaml:"before_each_method,omitempty"`
	BeforeTestExecution *Action `yaml:"before_test_execution,omitempty"`
	AfterTestExecution  *Action `yaml:"after_test_execution,omitempty"`
	AfterEachMethod     *Action `yaml:"after_each_method,omitempty"`
	AfterEach           *Action `yaml:"after_each,omitempty"`

	Handler   *Handler   `yaml:"handler,omitempty"`
	Condition *Condition `yaml:"condition,omitempty"`
	Resolver  *Resolver  `yaml:"resolver,omitempty"`
}

// ActionKind selects what an Action does.
type ActionKind string

const (
	ActionOK         ActionKind = "ok"
	ActionFail       ActionKind = "fail"
	ActionPanic      ActionKind = "panic"
	ActionExpectArgs ActionKind = "expect_args"
	ActionPublish    ActionKind = "publish"
)

// Action is a scripted step. In YAML it is either the scalar "ok" or a
// single-key mapping: {fail: msg}, {panic: msg}, {expect_args: [..]} or
// {publish: {key: value}}.
type Action struct {
	Kind    ActionKind        `yaml:"kind" validate:"required,oneof=ok fail panic expect_args publish"`
	Message string            `yaml:"message,omitempty" validate:"required_if=Kind fail,required_if=Kind panic"`
	Args    []string          `yaml:"args,omitempty" validate:"required_if=Kind expect_args"`
	Entry   map[string]string `yaml:"entry,omitempty" validate:"required_if=Kind publish"`
}

// UnmarshalYAML decodes the scalar and mapping forms of an action.
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	*a = Action{}
	if value.Kind == yaml.ScalarNode {
		if value.Value != string(ActionOK) {
			return fmt.Errorf("line %d: unknown action %q", value.Line, value.Value)
		}
		a.Kind = ActionOK
		return nil
	}

	key, arg, err := singleEntry(value, "action")
	if err != nil {
		return err
	}
	a.Kind = ActionKind(key)
	switch a.Kind {
	case ActionFail, ActionPanic:
		return arg.Decode(&a.Message)
	case ActionExpectArgs:
		if err := arg.Decode(&a.Args); err != nil {
			return err
		}
		if a.Args == nil {
			a.Args = []string{}
		}
		return nil
	case ActionPublish:
		return arg.Decode(&a.Entry)
	default:
		return fmt.Errorf("line %d: unknown action %q", value.Line, key)
	}
}

// HandlerMode selects how a scripted handler reacts to an error.
type HandlerMode string

const (
	HandlerAbsorb  HandlerMode = "absorb"
	HandlerRethrow HandlerMode = "rethrow"
	HandlerReplace HandlerMode = "replace"
)

// Handler is a scripted exception handler: the scalar "absorb" or "rethrow",
// or {replace: msg}.
type Handler struct {
	Mode    HandlerMode `yaml:"mode" validate:"required,oneof=absorb rethrow replace"`
	Message string      `yaml:"message,omitempty" validate:"required_if=Mode replace"`
}

// UnmarshalYAML decodes the scalar and mapping forms of a handler.
func (h *Handler) UnmarshalYAML(value *yaml.Node) error {
	*h = Handler{}
	if value.Kind == yaml.ScalarNode {
		h.Mode = HandlerMode(value.Value)
		if h.Mode == HandlerReplace {
			return fmt.Errorf("line %d: replace requires a message", value.Line)
		}
		return nil
	}

	key, arg, err := singleEntry(value, "handler")
	if err != nil {
		return err
	}
	if HandlerMode(key) != HandlerReplace {
		return fmt.Errorf("line %d: unknown handler %q", value.Line, key)
	}
	h.Mode = HandlerReplace
	return arg.Decode(&h.Message)
}

// Condition is a scripted execution condition. Disable wins over Enable.
type Condition struct {
	Disable string `yaml:"disable,omitempty" validate:"required_without=Enable"`
	Enable  string `yaml:"enable,omitempty"`
}

// Resolver resolves parameters by type from a fixed table.
type Resolver struct {
	Values map[string]string `yaml:"values" validate:"required,min=1"`
}

func singleEntry(value *yaml.Node, what string) (string, *yaml.Node, error) {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return "", nil, fmt.Errorf("line %d: %s must be a scalar or a single-key mapping", value.Line, what)
	}
	return value.Content[0].Value, value.Content[1], nil
}
