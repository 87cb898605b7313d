package scenario

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tungetti/gauntlet/internal/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	unitIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)
)

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

		_ = v.RegisterValidation("unit_id", func(fl validator.FieldLevel) bool {
			return unitIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks the scenario's structure and reports every problem found.
func Validate(s *Scenario) error {
	if s == nil {
		return errors.New(errors.Scenario, "scenario is nil").WithOp("scenario.Validate")
	}

	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !stderrors.As(err, &ves) {
		return errors.Wrap(errors.Scenario, "invalid scenario", err).WithOp("scenario.Validate")
	}

	msgs := make([]string, len(ves))
	for i, fe := range ves {
		msgs[i] = describe(fe)
	}
	return errors.Wrap(errors.Scenario, strings.Join(msgs, "; "), err).WithOp("scenario.Validate")
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must have unique %s values", field, strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "unit_id":
		return fmt.Sprintf("%s %q is not a valid unit id", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
	}
}

// fieldPath renders the namespace without the root type, using YAML keys,
// e.g. "units[1].body.message".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
