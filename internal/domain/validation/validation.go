package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Errors is an ordered list of human-readable validation messages.
// A nil or empty Errors means the input is valid.
type Errors []string

// Error joins all messages so Errors satisfies the error interface.
func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// Add appends a message.
func (e *Errors) Add(msg string) {
	*e = append(*e, msg)
}

// Addf appends a formatted message.
func (e *Errors) Addf(format string, args ...any) {
	*e = append(*e, fmt.Sprintf(format, args...))
}

// Merge appends all messages from other.
func (e *Errors) Merge(other Errors) {
	*e = append(*e, other...)
}

// Err returns nil when there are no messages, otherwise the list itself.
// Callers must use this instead of returning Errors directly so a nil
// interface is returned for valid input.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Messages extracts the message list from err if it wraps Errors.
// Returns nil if err is not a validation error.
func Messages(err error) []string {
	var ve Errors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// IsValidation reports whether err carries validation messages.
func IsValidation(err error) bool {
	var ve Errors
	return errors.As(err, &ve)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Field names in messages come from the `label` tag.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if label := fld.Tag.Get("label"); label != "" {
				return label
			}
			return fld.Name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			for _, r := range fl.Field().String() {
				if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
					return false
				}
			}
			return true
		})
	})
	return validate
}

// Struct checks v against its `validate` tags and returns the failures as messages.
// PRE: v is a struct or pointer to struct
// POST: Returns one message per failing field, in declaration order
func Struct(v any) Errors {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{err.Error()}
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email address"
	case "username":
		return field + " may only contain letters, numbers and underscores"
	default:
		return field + " is invalid"
	}
}
