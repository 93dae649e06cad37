package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// passwordSpecials are the characters that satisfy the special-character
// rule of the password policy.
const passwordSpecials = "@$!%*?&"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("password_policy", passwordPolicy); err != nil {
		panic(err)
	}
	return v
}

// passwordPolicy requires a lowercase letter, an uppercase letter, a digit
// and one special character, and the first character must come from that
// same alphabet.
func passwordPolicy(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if pw == "" {
		return false
	}

	first := rune(pw[0])
	if !isPolicyRune(first) {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func isPolicyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		strings.ContainsRune(passwordSpecials, r)
}

// ValidationError carries one message per offending field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validateStruct runs the struct tags of v and converts failures into a
// *ValidationError. Only the first failure per field is kept.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "Passwords don't match"
	case "password_policy":
		return "Password must contain uppercase, lowercase, number and special character"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
