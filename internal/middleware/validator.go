package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
// Messages name fields by their json tag.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate returns the first failed rule as a readable error.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Errorf("%s must be a valid email", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
