package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tungetti/gauntlet/internal/constants"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/logging"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator. Field names in errors use
// the yaml keys.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
			_, err := logging.ParseLevel(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("teardown_policy", func(fl validator.FieldLevel) bool {
			return constants.TeardownPolicy(fl.Field().String()).IsValid()
		})

		validateInst = v
	})

	return validateInst
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s", e.Field, e.Message)
}

// Validator validates configuration.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{validate: validatorInstance()}
}

// Validate validates the configuration and returns all errors.
// This allows collecting all validation errors at once rather than
// failing on the first error.
func (v *Validator) Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{&ValidationError{Field: "config", Message: "configuration is nil"}}
	}

	var errs []error

	if err := v.validate.Struct(cfg); err != nil {
		var ves validator.ValidationErrors
		if stderrors.As(err, &ves) {
			for _, fe := range ves {
				errs = append(errs, fieldError(fe))
			}
		} else {
			errs = append(errs, &ValidationError{Field: "config", Message: err.Error()})
		}
	}

	if cfg.InvocationTimeout > constants.MaxInvocationTimeout {
		errs = append(errs, &ValidationError{
			Field:   "invocation_timeout",
			Message: fmt.Sprintf("must not exceed %s", constants.MaxInvocationTimeout),
		})
	}

	if err := checkParentDir("log_file", cfg.LogFile); err != nil {
		errs = append(errs, err)
	}
	if err := checkParentDir("metrics_file", cfg.MetricsFile); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// ValidateOrError validates and returns a single wrapped error.
// If there are no validation errors, nil is returned.
func (v *Validator) ValidateOrError(cfg *Config) error {
	errs := v.Validate(cfg)
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}

	return errors.New(errors.Configuration, strings.Join(msgs, "; ")).
		WithOp("config.Validate")
}

// ValidateField validates a single value for the named field, using the same
// rules as the struct validation. Unknown fields are accepted.
func ValidateField(field, value string) error {
	tag, ok := fieldRules[field]
	if !ok {
		return nil
	}
	if err := validatorInstance().Var(value, tag); err != nil {
		var ves validator.ValidationErrors
		if stderrors.As(err, &ves) && len(ves) > 0 {
			return &ValidationError{Field: field, Message: ruleMessage(ves[0].Tag(), value, ves[0].Param())}
		}
		return &ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}

// fieldRules lists the single-value rules ValidateField knows about.
var fieldRules = map[string]string{
	"log_level":       "log_level",
	"teardown_policy": "teardown_policy",
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	if i := strings.Index(fe.Namespace(), "."); i >= 0 {
		field = fe.Namespace()[i+1:]
	}
	return &ValidationError{Field: field, Message: ruleMessage(fe.Tag(), fe.Value(), fe.Param())}
}

func ruleMessage(tag string, value interface{}, param string) string {
	switch tag {
	case "log_level":
		return fmt.Sprintf("invalid log level %q: must be one of: %s", value, strings.Join(logging.LevelNames(), ", "))
	case "teardown_policy":
		return fmt.Sprintf("invalid teardown policy %q: must be one of: %s, %s",
			value, constants.TeardownAlways, constants.TeardownNested)
	case "oneof":
		return fmt.Sprintf("invalid value %q: must be one of: %s", value, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return "must not be negative"
	case "required":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", tag)
	}
}

func checkParentDir(field, path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("directory does not exist: %s", dir),
		}
	}
	return nil
}
