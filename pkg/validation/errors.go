package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps JSON field names to a client-facing message
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (v *ValidationError) Error() string {
	messages := make([]string, 0, len(v.Errors))
	for field, msg := range v.Errors {
		messages = append(messages, field+": "+msg)
	}
	sort.Strings(messages)
	return strings.Join(messages, "; ")
}

// Add records message for field, replacing any earlier one
func (v *ValidationError) Add(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// NewValidationError keeps the first failing rule of each field
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		if _, seen := v.Errors[fe.Field()]; !seen {
			v.Errors[fe.Field()] = message(fe)
		}
	}
	return v
}

// ruleMessages holds the suffix printed after the field name. %s is the
// rule parameter.
var ruleMessages = map[string]string{
	"required":  "is required",
	"gte":       "must be greater than or equal to %s",
	"lte":       "must be less than or equal to %s",
	"gt":        "must be greater than %s",
	"lt":        "must be less than %s",
	"oneof":     "must be one of: %s",
	"latitude":  "must be a valid latitude (-90 to 90)",
	"longitude": "must be a valid longitude (-180 to 180)",
	"uuid":      "must be a valid UUID",
	"url":       "must be a valid URL",
	"finite":    "must be a finite number",
}

func message(fe validator.FieldError) string {
	field := fe.Field()

	switch tag := fe.Tag(); tag {
	case "min", "max":
		bound := "at least"
		if tag == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters long", field, bound, fe.Param())
		}
		return fmt.Sprintf("%s must contain %s %s items", field, bound, fe.Param())
	default:
		format, ok := ruleMessages[tag]
		if !ok {
			return field + " is invalid"
		}
		if strings.Contains(format, "%s") {
			return field + " " + fmt.Sprintf(format, fe.Param())
		}
		return field + " " + format
	}
}
