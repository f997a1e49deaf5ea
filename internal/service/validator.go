package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// NewValidator builds a validator with the password strength rule registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strongpw", strongPassword)
	return v
}

// strongPassword requires at least 8 characters with a letter, a digit,
// and a symbol.
func strongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}
	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLetter && hasDigit && hasSymbol
}
