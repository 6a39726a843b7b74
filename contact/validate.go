package contact

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrFieldRequired is wrapped by validation errors for empty required
	// fields.
	ErrFieldRequired = errors.New("field required")
	// ErrInvalidOption is wrapped when a select value is not one of the
	// step's options.
	ErrInvalidOption = errors.New("invalid option")
)

const (
	requiredMessage = "This field is required"
	optionMessage   = "Please choose one of the options"
	invalidMessage  = "Please enter a valid value"
	emailMessage    = "Please enter a valid email address"
)

// ValidationError reports why a step's value was rejected. Message is meant
// to be shown next to the input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return "contact: " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validator checks step values. It wraps a validator.Validate with the
// contact rules registered.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator with the "contactemail" and "phone" rules
// registered.
func NewValidator() *Validator {
	v := validator.New()

	emailRegex := regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return emailRegex.MatchString(value)
	})

	phoneRegex := regexp.MustCompile(`^[\d\s\+\-\(\)]{7,20}$`)
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return phoneRegex.MatchString(value)
	})

	return &Validator{v: v}
}

// RegisterRule adds a custom rule usable from Step.Rule.
func (v *Validator) RegisterRule(tag string, fn func(value string) bool) error {
	return v.v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && fn(value)
	})
}

// Step validates the value the draft holds for step. Empty optional fields
// always pass; rules only run on non-empty values.
func (v *Validator) Step(step Step, draft Draft) error {
	value := strings.TrimSpace(draft[step.ID])
	if value == "" {
		if step.Required {
			return &ValidationError{Field: step.ID, Message: requiredMessage, Err: ErrFieldRequired}
		}
		return nil
	}

	if step.Kind == KindSingleSelect && len(step.Options) > 0 {
		if !slices.Contains(step.Options, value) {
			return &ValidationError{Field: step.ID, Message: optionMessage, Err: ErrInvalidOption}
		}
		if value == OptionOther && step.OtherField != "" && strings.TrimSpace(draft[step.OtherField]) == "" {
			return &ValidationError{Field: step.OtherField, Message: requiredMessage, Err: ErrFieldRequired}
		}
	}

	rule, msg := step.Rule, step.Message
	if rule == "" && step.Kind == KindEmail {
		rule, msg = "contactemail", emailMessage
	}
	if rule != "" {
		if err := v.v.Var(value, rule); err != nil {
			if msg == "" {
				msg = invalidMessage
			}
			return &ValidationError{Field: step.ID, Message: msg, Err: err}
		}
	}
	return nil
}
