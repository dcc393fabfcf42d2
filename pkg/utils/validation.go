package utils

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"kgexplorer/pkg/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	return validate
}

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if errs := CollectStructErrors(s); errs.HasErrors() {
		return errs.ToAppError()
	}
	return nil
}

// CollectStructErrors validates a struct and returns every field failure.
// The result is empty when the struct is valid.
func CollectStructErrors(s interface{}) *errors.ValidationErrors {
	out := errors.NewValidationErrors()
	err := validate.Struct(s)
	if err == nil {
		return out
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out.Add("", err.Error())
		return out
	}
	for _, e := range validationErrors {
		out.Add(e.Field(), formatFieldError(e))
	}
	return out
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
