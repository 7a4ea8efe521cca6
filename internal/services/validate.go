package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/officechat-backend/internal/platform/apierr"
)

type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &inputValidator{validate: validate}
}

// check returns an apierr Validation error describing the first failing field.
func (v *inputValidator) check(in interface{}) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apierr.Validation(describeFieldError(fieldErrs[0]))
	}
	return apierr.Validation("invalid input")
}

func describeFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
