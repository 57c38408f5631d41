package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/optimo/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error, or nil when every rule passed
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []string:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// NonNegative rejects negative integers.
func NonNegative(fieldName string, value interface{}) *ValidationError {
	if n, ok := value.(int); ok && n < 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must not be negative"}
	}
	return nil
}

var langRegex = regexp.MustCompile(`^[a-z_]{3,}(\+[a-z_]{3,})*$`)

// TesseractLang accepts tesseract language specs such as "ita" or "ita+eng".
func TesseractLang(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !langRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be one or more tesseract language codes joined by '+'",
		}
	}
	return nil
}

// KnownVariants rejects unknown or duplicated variant ids.
func KnownVariants(fieldName string, value interface{}) *ValidationError {
	vs, ok := value.([]string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a list of variant ids"}
	}
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		if !constants.IsValidVariant(v) {
			return &ValidationError{Field: fieldName, Value: v, Message: "is not a known variant"}
		}
		if _, dup := seen[v]; dup {
			return &ValidationError{Field: fieldName, Value: v, Message: "is listed twice"}
		}
		seen[v] = struct{}{}
	}
	return nil
}

// OneOf builds a rule accepting only the given strings.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, _ := value.(string)
		for _, a := range allowed {
			if str == a {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")),
		}
	}
}
