// Package validation adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate as a fallback.
package validation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "validation error")
	}
	return nil
}

// Errors flattens validator failures into a field-keyed map for the response
// body. Non-validator errors collapse to a single "body" entry.
func Errors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "invalid"
		return out
	}
	for _, fe := range verrs {
		key := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			out[key] = fe.Tag() + " " + fe.Param()
		} else {
			out[key] = fe.Tag()
		}
	}
	return out
}
