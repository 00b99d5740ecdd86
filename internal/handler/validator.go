package handler

import (
	"github.com/abdusco/linkzip/internal/shortener"
	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo's Context.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return shortener.ValidateCode(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
