// Package validator wraps go-playground/validator with the project's rules.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	v.registerCustomValidations()
	return v
}

// FirstMessage returns one human readable message for the first failing
// field, or "" when i is valid.
func (v *Validator) FirstMessage(i interface{}) string {
	err := v.validate.Struct(i)
	if err == nil {
		return ""
	}
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		e := validationErrors[0]
		return fmt.Sprintf("%s: %s", e.Field(), message(e))
	}
	return "Invalid inputs passed, please check your data."
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "email":
		return "Please enter a valid email."
	case "min":
		return fmt.Sprintf("Must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", e.Param())
	case "ip":
		return "Must be a valid IP address"
	case "url":
		return "Must be a valid URL"
	case "gte", "lte":
		return "Out of range"
	case "required_with":
		return fmt.Sprintf("Required together with %s", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	}
	return fmt.Sprintf("failed validation on '%s'", e.Tag())
}

func (v *Validator) registerCustomValidations() {
	// Use json tag names in error output so they match request bodies
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register decimal.Decimal to be validated as float64 for gte/lte checks
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := val.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

