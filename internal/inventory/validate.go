package inventory

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed rule on a product payload.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

var validate *validator.Validate

func init() {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	validate = v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("date_required", func(fl validator.FieldLevel) bool {
		if t, ok := fl.Field().Interface().(time.Time); ok {
			return !t.IsZero()
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("register date_required: %w", err)
	}
	return v, nil
}

// ValidateInput checks a create/edit payload and returns every failed rule.
func ValidateInput(in ProductInput) []FieldError {
	var errs []FieldError
	if err := validate.Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = append(errs, FieldError{
					Field: fe.StructNamespace(),
					Tag:   fe.Tag(),
					Param: fe.Param(),
				})
			}
		}
	}
	// validator does not descend into decimal.Decimal.
	if in.UnitPrice.IsNegative() {
		errs = append(errs, FieldError{Field: "ProductInput.UnitPrice", Tag: "gte", Param: "0"})
	}
	return errs
}
